// Package data 内置一份效率表和示例输入，供命令行和 Lambda 在没有数据库时使用
package data

import _ "embed"

//go:embed efficiency.json
var Efficiency []byte

//go:embed operators.example.json
var ExampleOperators []byte

//go:embed config.example.json
var ExampleConfiguration []byte
