package db

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/chartdex/model"
)

// DynamoLookup reads one item per song, keyed by the zero padded song id in "PK".
type DynamoLookup struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

func NewDynamoLookup(client dynamodbiface.DynamoDBAPI, table string) *DynamoLookup {
	return &DynamoLookup{client: client, table: table}
}

// ConnectDynamo opens a session; an empty endpoint means the regional AWS endpoint.
func ConnectDynamo(region, endpoint, table string) (*DynamoLookup, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, &model.ExternalError{Op: "creating DynamoDB session", Err: err}
	}
	return NewDynamoLookup(dynamodb.New(sess), table), nil
}

func stringAttr(item map[string]*dynamodb.AttributeValue, name string) string {
	if v, ok := item[name]; ok && v.S != nil {
		return Sanitize(*v.S)
	}
	return ""
}

func numberAttr(item map[string]*dynamodb.AttributeValue, name string) (float64, bool) {
	v, ok := item[name]
	if !ok || v.N == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(*v.N, 64)
	return n, err == nil
}

func (l *DynamoLookup) Lookup(ctx context.Context, songID uint32) (model.SongMetadata, error) {
	out, err := l.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.table),
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(fmt.Sprintf("%05d", songID))},
		},
	})
	if err != nil {
		return model.SongMetadata{}, &model.ExternalError{Op: "metadata lookup", Err: err}
	}
	if len(out.Item) == 0 {
		return model.SongMetadata{}, notFound(songID)
	}

	meta := model.SongMetadata{
		ID:       songID,
		Title:    stringAttr(out.Item, "Title"),
		Subtitle: stringAttr(out.Item, "Subtitle"),
		Artist:   stringAttr(out.Item, "Artist"),
		Genre:    stringAttr(out.Item, "Genre"),
		Levels:   make(map[string]int),
		Volume:   1,
	}
	for _, col := range levelColumns {
		if level, ok := numberAttr(out.Item, col); ok {
			meta.Levels[col] = int(level)
		}
	}
	if v, ok := numberAttr(out.Item, "Volume"); ok && v > 0 {
		meta.Volume = v
	}
	if v, ok := numberAttr(out.Item, "BGDelay"); ok {
		meta.BackgroundDelay = int(v)
	}
	return meta, nil
}
