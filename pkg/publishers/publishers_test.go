package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestLoadRegistrySanitizesAllTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers":[
  {"id":" queue ","type":"SQS","sqs":{"uri":"https://sqs.example/q","region":"us-east-1","credentials":{"access_key_id":"AK","secret_access_key":""}}},
  {"id":"topic","type":"sns","sns":{"topic_arn":"arn:aws:sns:us-east-1:1:t","region":"us-east-1","credentials":{"access_key_id":"AK","secret_access_key":"SK"}}},
  {"id":"ps","type":"gcp_pubsub","gcp_pubsub":{"project_id":"p","topic":"t"}},
  {"id":"stream","type":"kafka","kafka":{"brokers":[" b1:9092 ",""],"topic":"outcomes"}}
]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	queue, ok := reg.ByID("queue")
	if !ok || queue.Type != TypeSQS {
		t.Fatalf("queue config = %#v", queue)
	}
	if queue.SQS.Credentials != nil {
		t.Fatalf("incomplete credentials should be dropped")
	}
	topic, _ := reg.ByID("topic")
	if topic.SNS.Credentials == nil || topic.SNS.Credentials.SecretAccessKey != "SK" {
		t.Fatalf("sns credentials = %#v", topic.SNS.Credentials)
	}
	stream, _ := reg.ByID("stream")
	if len(stream.Kafka.Brokers) != 1 || stream.Kafka.Brokers[0] != "b1:9092" {
		t.Fatalf("kafka brokers = %#v", stream.Kafka.Brokers)
	}
	if stream.Kafka.BatchTimeout != kafkaDefaultBatchMs {
		t.Fatalf("kafka batch timeout = %d", stream.Kafka.BatchTimeout)
	}
}

func TestValidatePublisherConfigRejectsIncompleteSinks(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "us-east-1"}},
		{ID: "k", Type: TypeKafka, Kafka: &KafkaPublisherConfig{Topic: "t"}},
		{ID: "g", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{ProjectID: "p"}},
		{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://q"}},
		{ID: "u", Type: "smtp"},
	}
	for _, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("expected validation error for %s", cfg.ID)
		}
	}
}
