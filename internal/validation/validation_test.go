package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"computegate/internal/errs"
	"computegate/internal/validation"
)

type sample struct {
	Name     string `json:"name" validate:"required,max=8"`
	Provider string `json:"provider" validate:"omitempty,oneof=e2b daytona"`
	TTL      int    `json:"ttl" validate:"gte=0,lte=100"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, validation.Struct(sample{Name: "ok", Provider: "e2b"}))
	require.NoError(t, validation.Struct(&sample{Name: "ok"}))
	require.NoError(t, validation.Struct(nil))

	tests := []struct {
		name string
		in   sample
		msg  string
	}{
		{"missing name", sample{}, "name is required"},
		{"long name", sample{Name: "abcdefghi"}, "name must be at most 8 characters"},
		{"bad provider", sample{Name: "x", Provider: "aws"}, "provider must be one of [e2b daytona]"},
		{"negative ttl", sample{Name: "x", TTL: -1}, "ttl must be greater than or equal to 0"},
		{"huge ttl", sample{Name: "x", TTL: 101}, "ttl must be less than or equal to 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Struct(tt.in)
			require.Error(t, err)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
			assert.Equal(t, tt.msg, errs.MessageOf(err))
		})
	}
}

type region struct {
	Region string `json:"region" validate:"required,region"`
}

func TestRegisterAllowed(t *testing.T) {
	v := &validation.Validator{}
	regions := []string{"eu", "us"}
	v.RegisterAllowed("region", regions)
	regions[0] = "ap"

	require.NoError(t, v.Struct(region{Region: "eu"}))

	err := v.Struct(region{Region: "ap"})
	require.Error(t, err)
	assert.Equal(t, "region must be one of [eu us]", errs.MessageOf(err))

	err = v.Struct(region{})
	assert.Equal(t, "region is required", errs.MessageOf(err))
}
