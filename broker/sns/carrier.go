package sns

import (
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.opentelemetry.io/otel/propagation"
)

var _ propagation.TextMapCarrier = (*attributeCarrier)(nil)

// attributeCarrier writes trace context into SNS string message attributes.
type attributeCarrier map[string]types.MessageAttributeValue

func (c attributeCarrier) Get(key string) string {
	v, ok := c[key]
	if !ok || v.StringValue == nil {
		return ""
	}
	return *v.StringValue
}

func (c attributeCarrier) Set(key, value string) {
	dataType := "String"
	c[key] = types.MessageAttributeValue{DataType: &dataType, StringValue: &value}
}

func (c attributeCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
