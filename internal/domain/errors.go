package domain

import (
	"errors"
	"fmt"
)

// InputFormatError 表示输入数据格式错误，在求解开始前中止
type InputFormatError struct {
	Source string // efficiency、operators、config
	Index  int    // 出错记录的下标，-1 表示整个文档
	Field  string
	Reason string
}

func (e *InputFormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s 数据格式错误: %s", e.Source, e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s 数据第 %d 条记录格式错误: %s", e.Source, e.Index+1, e.Reason)
	}
	return fmt.Sprintf("%s 数据第 %d 条记录的字段 %s 格式错误: %s", e.Source, e.Index+1, e.Field, e.Reason)
}

// UnknownWorkerError 表示干员不在效率表中，该干员不参与排班
type UnknownWorkerError struct {
	WorkerID string
}

func (e *UnknownWorkerError) Error() string {
	return fmt.Sprintf("效率表中没有干员 %s", e.WorkerID)
}

// InfeasibleAssignmentError 表示某一班中有设施无法填满
type InfeasibleAssignmentError struct {
	Shift    int // 从 1 开始
	Facility Facility
	Reason   string
}

func (e *InfeasibleAssignmentError) Error() string {
	return fmt.Sprintf("第 %d 班无法填满 %s: %s", e.Shift, e.Facility.Name(), e.Reason)
}

// ErrSearchBudgetExceeded 表示搜索预算耗尽，返回的是已找到的最好结果
var ErrSearchBudgetExceeded = errors.New("搜索预算耗尽，结果可能不是最优")

// SearchBudgetError 记录预算耗尽的班次，可以用 errors.Is 匹配 ErrSearchBudgetExceeded
type SearchBudgetError struct {
	Shift int
	Nodes int64
}

func (e *SearchBudgetError) Error() string {
	return fmt.Sprintf("第 %d 班在搜索 %d 个节点后%s", e.Shift, e.Nodes, ErrSearchBudgetExceeded.Error())
}

func (e *SearchBudgetError) Unwrap() error {
	return ErrSearchBudgetExceeded
}
