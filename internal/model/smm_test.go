package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 金额字段序列化成 JSON 数值，不能退回带引号的字符串
func TestMoneyFieldsMarshalAsNumbers(t *testing.T) {
	order := SMMOrder{Charge: decimal.RequireFromString("12.5")}
	raw, err := json.Marshal(order)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"charge":12.5`)

	svc := SMMService{
		Rate:          decimal.RequireFromString("10"),
		MarkupPercent: decimal.RequireFromString("20"),
	}
	raw, err = json.Marshal(svc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"rate":10`)
	assert.NotContains(t, string(raw), `"rate":"10"`)
}
