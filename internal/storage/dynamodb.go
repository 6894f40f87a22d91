// Package storage provides persistence implementations for sync runs and jobs.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/peteski22/hubgraph/internal/jobs"
	hubsync "github.com/peteski22/hubgraph/internal/sync"
)

// Attribute names of a job item.
const (
	attrCreatedAt  = "created_at"
	attrError      = "error"
	attrFinishedAt = "finished_at"
	attrJobID      = "job_id"
	attrStartedAt  = "started_at"
	attrStats      = "stats"
	attrStatus     = "status"
)

// DynamoDBAPI defines the DynamoDB operations used by the job store.
type DynamoDBAPI interface {
	// GetItem retrieves an item from DynamoDB.
	GetItem(
		ctx context.Context,
		params *dynamodb.GetItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.GetItemOutput, error)

	// PutItem stores an item in DynamoDB.
	PutItem(
		ctx context.Context,
		params *dynamodb.PutItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.PutItemOutput, error)

	// Scan reads every item in a table, one page at a time.
	Scan(
		ctx context.Context,
		params *dynamodb.ScanInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.ScanOutput, error)
}

// DynamoDBJobStore persists sync jobs in a DynamoDB table keyed by job_id.
type DynamoDBJobStore struct {
	// client is the DynamoDB API client.
	client DynamoDBAPI

	// tableName is the name of the DynamoDB table.
	tableName string
}

// NewDynamoDBJobStore creates a new DynamoDB-backed job store.
func NewDynamoDBJobStore(client DynamoDBAPI, tableName string) (*DynamoDBJobStore, error) {
	if client == nil {
		return nil, errors.New("dynamodb client is required")
	}
	if tableName == "" {
		return nil, errors.New("table name is required")
	}

	return &DynamoDBJobStore{
		client:    client,
		tableName: tableName,
	}, nil
}

// Job returns the job with the given ID, or jobs.ErrJobNotFound.
func (s *DynamoDBJobStore) Job(ctx context.Context, id string) (*jobs.Job, error) {
	if id == "" {
		return nil, errors.New("job ID is required")
	}

	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			attrJobID: &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting item from DynamoDB: %w", err)
	}

	if len(output.Item) == 0 {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, id)
	}

	job, err := parseJob(output.Item)
	if err != nil {
		return nil, fmt.Errorf("parsing item: %w", err)
	}

	return job, nil
}

// Jobs returns up to limit jobs, most recently created first.
// The whole table is scanned; the job table holds a bounded history.
func (s *DynamoDBJobStore) Jobs(ctx context.Context, limit int) ([]*jobs.Job, error) {
	var (
		results  []*jobs.Job
		startKey map[string]types.AttributeValue
	)

	for {
		output, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scanning DynamoDB: %w", err)
		}

		for _, item := range output.Items {
			job, err := parseJob(item)
			if err != nil {
				return nil, fmt.Errorf("parsing item: %w", err)
			}
			results = append(results, job)
		}

		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		startKey = output.LastEvaluatedKey
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Save creates or replaces a job item.
func (s *DynamoDBJobStore) Save(ctx context.Context, job *jobs.Job) error {
	if job == nil || job.ID == "" {
		return errors.New("job ID is required")
	}

	item := map[string]types.AttributeValue{
		attrJobID:     &types.AttributeValueMemberS{Value: job.ID},
		attrStatus:    &types.AttributeValueMemberS{Value: string(job.Status)},
		attrCreatedAt: &types.AttributeValueMemberS{Value: job.CreatedAt.UTC().Format(time.RFC3339Nano)},
	}
	if job.StartedAt != nil {
		item[attrStartedAt] = &types.AttributeValueMemberS{Value: job.StartedAt.UTC().Format(time.RFC3339Nano)}
	}
	if job.FinishedAt != nil {
		item[attrFinishedAt] = &types.AttributeValueMemberS{Value: job.FinishedAt.UTC().Format(time.RFC3339Nano)}
	}
	if job.Error != "" {
		item[attrError] = &types.AttributeValueMemberS{Value: job.Error}
	}
	if job.Stats != nil {
		data, err := json.Marshal(job.Stats)
		if err != nil {
			return fmt.Errorf("encoding job stats: %w", err)
		}
		item[attrStats] = &types.AttributeValueMemberS{Value: string(data)}
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}

	return nil
}

func parseJob(item map[string]types.AttributeValue) (*jobs.Job, error) {
	job := &jobs.Job{}

	if v, ok := item[attrJobID].(*types.AttributeValueMemberS); ok {
		job.ID = v.Value
	}
	if v, ok := item[attrStatus].(*types.AttributeValueMemberS); ok {
		job.Status = jobs.Status(v.Value)
	}
	if v, ok := item[attrError].(*types.AttributeValueMemberS); ok {
		job.Error = v.Value
	}
	if v, ok := item[attrCreatedAt].(*types.AttributeValueMemberS); ok {
		t, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", attrCreatedAt, err)
		}
		job.CreatedAt = t
	}
	if v, ok := item[attrStartedAt].(*types.AttributeValueMemberS); ok {
		t, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", attrStartedAt, err)
		}
		job.StartedAt = &t
	}
	if v, ok := item[attrFinishedAt].(*types.AttributeValueMemberS); ok {
		t, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", attrFinishedAt, err)
		}
		job.FinishedAt = &t
	}
	if v, ok := item[attrStats].(*types.AttributeValueMemberS); ok {
		var stats hubsync.Stats
		if err := json.Unmarshal([]byte(v.Value), &stats); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", attrStats, err)
		}
		job.Stats = &stats
	}

	return job, nil
}
