package environment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authsession/pkg/environment"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want environment.Environment
	}{
		{raw: "production", want: environment.Production},
		{raw: "prod", want: environment.Production},
		{raw: " PROD ", want: environment.Production},
		{raw: "staging", want: environment.Staging},
		{raw: "stage", want: environment.Staging},
		{raw: "development", want: environment.Development},
		{raw: "", want: environment.Development},
		{raw: "qa", want: environment.Development},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, environment.Parse(tt.raw))
		})
	}
}

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		ctx := environment.WithContext(context.Background(), environment.Production)
		assert.Equal(t, environment.Production, environment.FromContext(ctx))
		assert.True(t, environment.IsProduction(ctx))
		assert.False(t, environment.IsDevelopment(ctx))
	})

	t.Run("missing value", func(t *testing.T) {
		assert.Equal(t, environment.Environment(""), environment.FromContext(context.Background()))
		//nolint:staticcheck // nil context is handled explicitly
		assert.Equal(t, environment.Environment(""), environment.FromContext(nil))
	})

	t.Run("logger extractor", func(t *testing.T) {
		extract := environment.LoggerExtractor()

		_, ok := extract(context.Background())
		assert.False(t, ok)

		attr, ok := extract(environment.WithContext(context.Background(), environment.Staging))
		assert.True(t, ok)
		assert.Equal(t, "env", attr.Key)
		assert.Equal(t, "staging", attr.Value.String())
	})
}
