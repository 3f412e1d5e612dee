package toolregistry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllDomainsOrder(t *testing.T) {
	assert.Equal(t, []Domain{DomainTechSupport, DomainGeneral, DomainData, DomainDemo}, AllDomains())

	for i, d := range AllDomains() {
		assert.Equal(t, i, domainRank(d))
	}
	assert.Equal(t, len(AllDomains()), domainRank(Domain("unknown")))
}

func TestParseDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Domain
		wantErr  bool
	}{
		{name: "exact", input: "general", expected: DomainGeneral},
		{name: "mixed case", input: "Tech_Support", expected: DomainTechSupport},
		{name: "padded", input: "  demo ", expected: DomainDemo},
		{name: "data", input: "data", expected: DomainData},
		{name: "unknown", input: "finance", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDomain(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDomain))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, Succeeded("x", 1).Err())

	err := unknownTool("does_not_exist").Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTool))
	assert.Contains(t, err.Error(), "does_not_exist")

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeUnknownTool, toolErr.Code)
	assert.Equal(t, "does_not_exist", toolErr.Tool)
}

func TestFailedClassifiesErrors(t *testing.T) {
	assert.Equal(t, CodeInvalidParameters, Failed("t", ErrInvalidParameters).Code)
	assert.Equal(t, CodeUnknownTool, Failed("t", ErrUnknownTool).Code)
	assert.Equal(t, CodeHandlerFault, Failed("t", errors.New("boom")).Code)
}
