package devops

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParameterStore struct {
	values map[string]string
	calls  []string
}

func (f *fakeParameterStore) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(params.Name)
	f.calls = append(f.calls, name)
	v, ok := f.values[name]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: params.Name, Value: aws.String(v)}}, nil
}

func TestLoadYAMLParameter(t *testing.T) {
	store := &fakeParameterStore{values: map[string]string{
		"/timesheets/prod": "database:\n  dsn: user:pass@tcp(db)/timesheets\nslack:\n  error_channel: C123\n",
		"/timesheets/bad":  "database: [",
	}}

	out, err := LoadYAMLParameter(context.Background(), store, "/timesheets/prod")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"dsn": "user:pass@tcp(db)/timesheets"}, out["database"])
	assert.Equal(t, map[string]any{"error_channel": "C123"}, out["slack"])

	_, err = LoadYAMLParameter(context.Background(), store, "/timesheets/bad")
	assert.ErrorContains(t, err, "unmarshal yaml")

	_, err = LoadYAMLParameter(context.Background(), store, "/timesheets/missing")
	assert.ErrorContains(t, err, "get parameter /timesheets/missing")

	assert.Equal(t, []string{"/timesheets/prod", "/timesheets/bad", "/timesheets/missing"}, store.calls)
}
