package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterGetter is the subset of the SSM client used to resolve parameters.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ResolveSymbols returns the symbol list to subscribe to. In prod, a non-empty
// SSM parameter named by SymbolsParameter replaces the configured list; any SSM
// failure keeps the configured list.
func (cfg *Config) ResolveSymbols(ctx context.Context, client ParameterGetter) ([]string, error) {
	if cfg.Log.Environment != "prod" || cfg.Binance.SymbolsParameter == "" {
		return cfg.Binance.Symbols, nil
	}
	if client == nil {
		c, err := newSSMClient(ctx)
		if err != nil {
			return cfg.Binance.Symbols, err
		}
		client = c
	}

	value, err := getParameterStoreValue(ctx, client, cfg.Binance.SymbolsParameter, false)
	if err != nil {
		return cfg.Binance.Symbols, err
	}
	symbols := splitSymbols([]string{value})
	if len(symbols) == 0 {
		return cfg.Binance.Symbols, fmt.Errorf("parameter %s is empty", cfg.Binance.SymbolsParameter)
	}
	return symbols, nil
}

func newSSMClient(ctx context.Context) (*ssm.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(awsCfg), nil
}

func getParameterStoreValue(ctx context.Context, client ParameterGetter, parameterName string, decrypt bool) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", parameterName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", parameterName)
	}

	return *result.Parameter.Value, nil
}
