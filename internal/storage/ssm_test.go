package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"

	hubsync "github.com/peteski22/hubgraph/internal/sync"
)

type mockSSMClient struct {
	getParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	putParameterFunc func(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

func (m *mockSSMClient) GetParameter(
	ctx context.Context,
	params *ssm.GetParameterInput,
	optFns ...func(*ssm.Options),
) (*ssm.GetParameterOutput, error) {
	if m.getParameterFunc != nil {
		return m.getParameterFunc(ctx, params, optFns...)
	}
	return &ssm.GetParameterOutput{}, nil
}

func (m *mockSSMClient) PutParameter(
	ctx context.Context,
	params *ssm.PutParameterInput,
	optFns ...func(*ssm.Options),
) (*ssm.PutParameterOutput, error) {
	if m.putParameterFunc != nil {
		return m.putParameterFunc(ctx, params, optFns...)
	}
	return &ssm.PutParameterOutput{}, nil
}

func TestNewSSMStateStore(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		client        SSMAPI
		errMsg        string
		parameterName string
		wantErr       bool
	}{
		"valid inputs": {
			client:        &mockSSMClient{},
			parameterName: "/hubgraph/last-run",
		},
		"nil client": {
			client:        nil,
			parameterName: "/hubgraph/last-run",
			wantErr:       true,
			errMsg:        "ssm client is required",
		},
		"empty parameter name": {
			client:        &mockSSMClient{},
			parameterName: "",
			wantErr:       true,
			errMsg:        "parameter name is required",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, err := NewSSMStateStore(tc.client, tc.parameterName)

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				require.Nil(t, store)
			} else {
				require.NoError(t, err)
				require.NotNil(t, store)
			}
		})
	}
}

func TestSSMStateStore_LastRun(t *testing.T) {
	t.Parallel()

	finished := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := map[string]struct {
		client  *mockSSMClient
		errMsg  string
		want    *hubsync.Stats
		wantErr bool
	}{
		"returns stats when found": {
			client: &mockSSMClient{
				getParameterFunc: func(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
					require.Equal(t, "/hubgraph/last-run", aws.ToString(params.Name))
					return &ssm.GetParameterOutput{
						Parameter: &types.Parameter{
							Value: aws.String(`{"contacts":3,"companies":2,"deals":1,"tickets":0,"errors":1,"recordErrors":4,"finishedAt":"2024-01-15T10:30:00Z","startedAt":"0001-01-01T00:00:00Z"}`),
						},
					}, nil
				},
			},
			want: &hubsync.Stats{
				Companies:    2,
				Contacts:     3,
				Deals:        1,
				Errors:       1,
				FinishedAt:   finished,
				RecordErrors: 4,
			},
		},
		"returns nil when parameter not found": {
			client: &mockSSMClient{
				getParameterFunc: func(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
					return nil, &types.ParameterNotFound{}
				},
			},
		},
		"returns nil when value is empty": {
			client: &mockSSMClient{
				getParameterFunc: func(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
					return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String("")}}, nil
				},
			},
		},
		"returns error on SSM failure": {
			client: &mockSSMClient{
				getParameterFunc: func(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
					return nil, errors.New("throttled")
				},
			},
			wantErr: true,
			errMsg:  "getting parameter from SSM",
		},
		"returns error on malformed document": {
			client: &mockSSMClient{
				getParameterFunc: func(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
					return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String("2024-01-15T10:30:00Z")}}, nil
				},
			},
			wantErr: true,
			errMsg:  "decoding run state",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, err := NewSSMStateStore(tc.client, "/hubgraph/last-run")
			require.NoError(t, err)

			got, err := store.LastRun(context.Background())

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSSMStateStore_SaveRun(t *testing.T) {
	t.Parallel()

	var saved *ssm.PutParameterInput
	client := &mockSSMClient{
		putParameterFunc: func(_ context.Context, params *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
			saved = params
			return &ssm.PutParameterOutput{}, nil
		},
	}
	store, err := NewSSMStateStore(client, "/hubgraph/last-run")
	require.NoError(t, err)

	err = store.SaveRun(context.Background(), &hubsync.Stats{Contacts: 5, Errors: 0})

	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, "/hubgraph/last-run", aws.ToString(saved.Name))
	require.True(t, aws.ToBool(saved.Overwrite))
	require.Equal(t, types.ParameterTypeString, saved.Type)
	require.Contains(t, aws.ToString(saved.Value), `"contacts":5`)
}

func TestSSMStateStore_SaveRun_Errors(t *testing.T) {
	t.Parallel()

	store, err := NewSSMStateStore(&mockSSMClient{
		putParameterFunc: func(_ context.Context, _ *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
			return nil, errors.New("access denied")
		},
	}, "/hubgraph/last-run")
	require.NoError(t, err)

	err = store.SaveRun(context.Background(), &hubsync.Stats{})
	require.ErrorContains(t, err, "putting parameter to SSM")

	err = store.SaveRun(context.Background(), nil)
	require.ErrorContains(t, err, "stats are required")
}
