package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/slackmgr/appenders/appender"
	"github.com/slackmgr/appenders/internal/executor"
	"github.com/slackmgr/types"
)

// TTLAttr is the attribute name used for DynamoDB TTL-based expiration when
// [WithTimeToLive] is set. The table must have TTL enabled on this attribute.
const TTLAttr = "ttl"

var (
	// ErrEmptyTable is returned by Append when no table name was configured.
	ErrEmptyTable = errors.New("table name must not be empty")

	// ErrNotConnected is returned by Append when the DynamoDB session is not
	// open, typically because the appender was stopped concurrently.
	ErrNotConnected = errors.New("DynamoDB session is not open")

	// ErrMissingRegion is returned by Start when no AWS region could be
	// resolved.
	ErrMissingRegion = errors.New("AWS region must not be empty")

	// ErrInvalidPayload is returned by Append when the encoded event is not a
	// JSON object.
	ErrInvalidPayload = errors.New("payload is not a JSON object")
)

var validRegion = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// API is the subset of the DynamoDB client used by the appender.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// session is the state that exists between a successful start and stop.
type session struct {
	client API
	pool   *executor.Pool
}

// client is the [appender.Writer] that puts one item per event.
type client struct {
	region    string
	tableName string
	opts      *Options
	logger    types.Logger
	counters  *appender.Counters
	session   atomic.Pointer[session]
}

func (c *client) Start(ctx context.Context) error {
	api := c.opts.dynamoDBAPI

	if api == nil {
		awsCfg, err := c.loadAWSConfig(ctx)
		if err != nil {
			return err
		}

		api = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if c.opts.endpoint != "" {
				o.BaseEndpoint = aws.String(c.opts.endpoint)
			}
		})
	}

	if c.opts.validateTable {
		if err := c.validateTable(ctx, api); err != nil {
			return err
		}
	}

	c.session.Store(&session{
		client: api,
		pool:   executor.NewPool(c.opts.name, c.opts.threadPoolSize, c.logger),
	})

	return nil
}

func (c *client) Stop(_ context.Context) error {
	s := c.session.Swap(nil)
	if s == nil {
		return nil
	}

	s.pool.Shutdown(c.opts.maxFlushTime)

	return nil
}

// Write converts payload to an item and submits the PutItem call to the pool.
// Unless the appender is an async parent, it then waits up to the max flush
// time for the call to complete. Running out of time is not an error.
func (c *client) Write(ctx context.Context, event appender.Event, payload string) error {
	if c.tableName == "" {
		return ErrEmptyTable
	}

	s := c.session.Load()
	if s == nil {
		return ErrNotConnected
	}

	item, err := c.createItem(payload)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: &c.tableName,
		Item:      item,
	}

	err = s.pool.Deliver(executor.Delivery{
		Send: func() error {
			_, err := s.client.PutItem(context.WithoutCancel(ctx), input)
			return err
		},
		Message:   fmt.Sprintf("Appender '%s' failed to send logging event '%s' to DynamoDB table '%s'", c.opts.name, event, c.tableName),
		OnSuccess: c.counters.IncSent,
		OnError: func(err error) {
			c.counters.IncFailed()

			if c.opts.failureHook != nil {
				c.opts.failureHook(event, err)
			}
		},
	}, !c.opts.asyncParent, c.opts.maxFlushTime)
	if err != nil {
		return fmt.Errorf("failed to submit logging event to DynamoDB table %s: %w", c.tableName, err)
	}

	return nil
}

func (c *client) loadAWSConfig(ctx context.Context) (aws.Config, error) {
	var awsCfg aws.Config

	if c.opts.awsCfg != nil {
		awsCfg = c.opts.awsCfg.Copy()

		if c.region != "" {
			awsCfg.Region = c.region
		}
	} else {
		var err error

		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(c.region))
		if err != nil {
			return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
	}

	if awsCfg.Region == "" {
		return aws.Config{}, ErrMissingRegion
	}

	if !validRegion.MatchString(awsCfg.Region) {
		return aws.Config{}, fmt.Errorf("invalid AWS region %q", awsCfg.Region)
	}

	if c.opts.accessKeyID != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(c.opts.accessKeyID, c.opts.secretAccessKey, c.opts.sessionToken),
		)
	}

	if awsCfg.Credentials == nil {
		return aws.Config{}, errors.New("no AWS credentials provider configured")
	}

	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return aws.Config{}, fmt.Errorf("failed to retrieve AWS credentials: %w", err)
	}

	return awsCfg, nil
}

// validateTable checks that the table exists, is active and has a simple
// primary key named after the configured primary key attribute.
func (c *client) validateTable(ctx context.Context, api API) error {
	input := &dynamodb.DescribeTableInput{
		TableName: aws.String(c.tableName),
	}

	response, err := api.DescribeTable(ctx, input)
	if err != nil {
		var notFoundError *dynamodbtypes.ResourceNotFoundException
		if errors.As(err, &notFoundError) {
			return fmt.Errorf("table %s does not exist", c.tableName)
		}
		return fmt.Errorf("failed to describe table %s: %w", c.tableName, err)
	}

	if response.Table == nil || len(response.Table.KeySchema) < 1 {
		return fmt.Errorf("table %s has no key schema", c.tableName)
	}

	if len(response.Table.KeySchema) > 1 {
		return fmt.Errorf("table %s has a composite primary key, expected simple", c.tableName)
	}

	hashKey := response.Table.KeySchema[0]

	if hashKey.KeyType != dynamodbtypes.KeyTypeHash || aws.ToString(hashKey.AttributeName) != c.opts.primaryKey {
		return fmt.Errorf("table %s has partition key %s, expected %s", c.tableName, aws.ToString(hashKey.AttributeName), c.opts.primaryKey)
	}

	if response.Table.TableStatus != dynamodbtypes.TableStatusActive {
		return fmt.Errorf("table %s is not active (status: %s)", c.tableName, response.Table.TableStatus)
	}

	return nil
}

// createItem decodes the JSON payload into DynamoDB attributes and adds the
// generated primary key, replacing any attribute of the same name.
func (c *client) createItem(payload string) (map[string]dynamodbtypes.AttributeValue, error) {
	decoder := json.NewDecoder(strings.NewReader(payload))
	decoder.UseNumber()

	var doc map[string]any
	if err := decoder.Decode(&doc); err != nil || doc == nil {
		return nil, ErrInvalidPayload
	}

	item, err := attributevalue.MarshalMap(preserveNumbers(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal logging event attributes: %w", err)
	}

	item[c.opts.primaryKey] = &dynamodbtypes.AttributeValueMemberS{Value: uuid.NewString()}

	if c.opts.timeToLive > 0 {
		ttl := strconv.FormatInt(c.opts.clock().Add(c.opts.timeToLive).Unix(), 10)
		item[TTLAttr] = &dynamodbtypes.AttributeValueMemberN{Value: ttl}
	}

	return item, nil
}

// number keeps the exact decimal text of a JSON number when it is stored as
// a DynamoDB number.
type number json.Number

func (n number) MarshalDynamoDBAttributeValue() (dynamodbtypes.AttributeValue, error) {
	return &dynamodbtypes.AttributeValueMemberN{Value: string(n)}, nil
}

func preserveNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		return number(x)
	case map[string]any:
		for k, e := range x {
			x[k] = preserveNumbers(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = preserveNumbers(e)
		}
		return x
	default:
		return v
	}
}
