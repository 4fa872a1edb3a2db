package workflow

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ghrcdaac/cumulus-audit/audit"
	"github.com/ghrcdaac/cumulus-audit/common"
)

// Ingest runs spawned by the same unlisted discovery run all describe the
// same parent, so describe results are worth caching for the length of a
// run.
const describeCacheSize = 512

// Client wraps the Step Functions API behind the lookups the audit needs.
type Client struct {
	sfn       *sfn.Client
	describes *lru.Cache[string, *audit.Description]
}

func NewClient(awsConfig *common.AWSConfig) (*Client, error) {
	cfg, err := loadSDKConfig(awsConfig)
	if err != nil {
		return nil, err
	}

	client := sfn.NewFromConfig(cfg, func(o *sfn.Options) {
		if awsConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsConfig.Endpoint)
		}
	})

	describes, err := lru.New[string, *audit.Description](describeCacheSize)
	if err != nil {
		return nil, err
	}

	return &Client{sfn: client, describes: describes}, nil
}

func loadSDKConfig(awsConfig *common.AWSConfig) (aws.Config, error) {
	region := awsConfig.Region
	if region == "" {
		region = "us-east-1"
	}
	options := []func(*config.LoadOptions) error{config.WithRegion(region)}

	if awsConfig.AccessKey != "" {
		options = append(options,
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(awsConfig.AccessKey, awsConfig.SecretKey, "")),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return config.LoadDefaultConfig(ctx, options...)
}

func (c *Client) ListExecutions(ctx context.Context, stateMachineARN string, limit int32) ([]audit.ListedExecution, error) {
	out, err := c.sfn.ListExecutions(ctx, &sfn.ListExecutionsInput{
		StateMachineArn: aws.String(stateMachineARN),
		MaxResults:      limit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]audit.ListedExecution, 0, len(out.Executions))
	for _, execution := range out.Executions {
		items = append(items, audit.ListedExecution{
			Name:      aws.ToString(execution.Name),
			Ref:       aws.ToString(execution.ExecutionArn),
			Status:    string(execution.Status),
			StartDate: aws.ToTime(execution.StartDate),
			StopDate:  aws.ToTime(execution.StopDate),
		})
	}

	return items, nil
}

func (c *Client) DescribeExecution(ctx context.Context, ref string) (*audit.Description, error) {
	if desc, ok := c.describes.Get(ref); ok {
		return desc, nil
	}

	out, err := c.sfn.DescribeExecution(ctx, &sfn.DescribeExecutionInput{
		ExecutionArn: aws.String(ref),
	})
	if err != nil {
		return nil, err
	}

	desc := &audit.Description{
		Name:      aws.ToString(out.Name),
		Ref:       aws.ToString(out.ExecutionArn),
		Status:    string(out.Status),
		StartDate: aws.ToTime(out.StartDate),
		StopDate:  aws.ToTime(out.StopDate),
		Input:     aws.ToString(out.Input),
		Output:    aws.ToString(out.Output),
	}
	c.describes.Add(ref, desc)

	return desc, nil
}

func (c *Client) GetExecutionHistory(ctx context.Context, ref string) ([]audit.HistoryEvent, error) {
	out, err := c.sfn.GetExecutionHistory(ctx, &sfn.GetExecutionHistoryInput{
		ExecutionArn: aws.String(ref),
	})
	if err != nil {
		return nil, err
	}

	events := make([]audit.HistoryEvent, 0, len(out.Events))
	for _, event := range out.Events {
		mapped := audit.HistoryEvent{Type: string(event.Type)}
		if details := event.LambdaFunctionSucceededEventDetails; details != nil {
			mapped.Output = aws.ToString(details.Output)
		}
		if details := event.LambdaFunctionFailedEventDetails; details != nil {
			mapped.Cause = aws.ToString(details.Cause)
		}
		events = append(events, mapped)
	}

	return events, nil
}
