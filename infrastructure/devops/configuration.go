package devops

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterStore is the part of the SSM client used to read configuration.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

var (
	once    sync.Once
	client  ParameterStore
	loadErr error
)

func defaultClient(ctx context.Context) (ParameterStore, error) {
	once.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			loadErr = fmt.Errorf("load aws config: %w", err)
			return
		}
		client = ssm.NewFromConfig(cfg)
	})
	return client, loadErr
}

// LoadConfigOverlay reads a YAML configuration document from SSM Parameter Store using
// the default AWS credentials chain.
func LoadConfigOverlay(ctx context.Context, paramName string) (map[string]any, error) {
	c, err := defaultClient(ctx)
	if err != nil {
		return nil, err
	}
	return LoadYAMLParameter(ctx, c, paramName)
}

// LoadYAMLParameter fetches a (possibly encrypted) parameter and decodes it as a YAML map.
func LoadYAMLParameter(ctx context.Context, store ParameterStore, paramName string) (map[string]any, error) {
	out, err := store.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get parameter %s: %w", paramName, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s has no value", paramName)
	}

	parsed := map[string]any{}
	if err := yaml.Unmarshal([]byte(*out.Parameter.Value), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return parsed, nil
}
