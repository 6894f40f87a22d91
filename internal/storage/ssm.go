package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	hubsync "github.com/peteski22/hubgraph/internal/sync"
)

// SSMAPI defines the SSM operations used by the state store.
type SSMAPI interface {
	// GetParameter retrieves a parameter from SSM.
	GetParameter(
		ctx context.Context,
		params *ssm.GetParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.GetParameterOutput, error)

	// PutParameter stores a parameter in SSM.
	PutParameter(
		ctx context.Context,
		params *ssm.PutParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.PutParameterOutput, error)
}

// SSMStateStore keeps the last sync run as a JSON document in one SSM parameter.
type SSMStateStore struct {
	// client is the SSM API client.
	client SSMAPI

	// parameterName is the SSM parameter holding the run document.
	parameterName string
}

// NewSSMStateStore creates a new SSM-backed state store.
func NewSSMStateStore(client SSMAPI, parameterName string) (*SSMStateStore, error) {
	if client == nil {
		return nil, errors.New("ssm client is required")
	}
	if parameterName == "" {
		return nil, errors.New("parameter name is required")
	}

	return &SSMStateStore{
		client:        client,
		parameterName: parameterName,
	}, nil
}

// LastRun returns the stats of the last recorded run, or nil if none exists.
func (s *SSMStateStore) LastRun(ctx context.Context) (*hubsync.Stats, error) {
	output, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(s.parameterName),
	})
	if err != nil {
		// Parameter not found means no run has been recorded yet.
		var notFoundErr *types.ParameterNotFound
		if errors.As(err, &notFoundErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting parameter from SSM: %w", err)
	}

	if output.Parameter == nil || output.Parameter.Value == nil || *output.Parameter.Value == "" {
		return nil, nil
	}

	var stats hubsync.Stats
	if err := json.Unmarshal([]byte(*output.Parameter.Value), &stats); err != nil {
		return nil, fmt.Errorf("decoding run state from parameter: %w", err)
	}

	return &stats, nil
}

// SaveRun overwrites the parameter with the given run.
func (s *SSMStateStore) SaveRun(ctx context.Context, stats *hubsync.Stats) error {
	if stats == nil {
		return errors.New("stats are required")
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding run state: %w", err)
	}

	_, err = s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(s.parameterName),
		Overwrite: aws.Bool(true),
		Type:      types.ParameterTypeString,
		Value:     aws.String(string(data)),
	})
	if err != nil {
		return fmt.Errorf("putting parameter to SSM: %w", err)
	}

	return nil
}
