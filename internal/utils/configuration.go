package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// ParseConfiguration 解析排班配置 JSON，不认识的字段视为错误
// 只做格式检查，语义检查见 ValidateConfiguration
func ParseConfiguration(data []byte) (*domain.Configuration, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, configError("", "配置不能为空")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	cfg := &domain.Configuration{}
	if err := dec.Decode(cfg); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, configError(typeErr.Field, fmt.Sprintf("类型应为 %s", typeErr.Type))
		}
		return nil, configError("", err.Error())
	}
	if dec.More() {
		return nil, configError("", "配置后面有多余的内容")
	}

	return cfg, nil
}

func LoadConfigurationFile(path string) (*domain.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取排班配置 %s 失败: %w", path, err)
	}
	return ParseConfiguration(data)
}
