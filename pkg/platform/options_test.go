package platform

import (
	"context"
	"testing"

	"github.com/txn2/moodchat/pkg/health"
	"github.com/txn2/moodchat/pkg/llm"
	"github.com/txn2/moodchat/pkg/transcript"
)

func TestWithConfig(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Name: "test"}}
	opts := &Options{}
	WithConfig(cfg)(opts)

	if opts.Config != cfg {
		t.Error("WithConfig did not set Config")
	}
}

func TestWithDB(t *testing.T) {
	opts := &Options{}
	WithDB(nil)(opts)

	if opts.DB != nil {
		t.Error("WithDB should set nil DB")
	}
}

func TestWithGateway(t *testing.T) {
	gw := &fakeGateway{}
	opts := &Options{}
	WithGateway(gw)(opts)

	if opts.Gateway != gw {
		t.Error("WithGateway did not set Gateway")
	}
}

func TestWithRecorder(t *testing.T) {
	opts := &Options{}
	WithRecorder(transcript.Noop{})(opts)

	if _, ok := opts.Recorder.(transcript.Noop); !ok {
		t.Errorf("Recorder = %T, want transcript.Noop", opts.Recorder)
	}
}

func TestWithHealth(t *testing.T) {
	h := health.NewChecker()
	opts := &Options{}
	WithHealth(h)(opts)

	if opts.Health != h {
		t.Error("WithHealth did not set Health")
	}
}

// fakeGateway is a chatbot.Gateway that never calls out.
type fakeGateway struct {
	label string
}

func (f *fakeGateway) ClassifyEmotion(context.Context, string) (string, error) {
	if f.label == "" {
		return "neutral", nil
	}
	return f.label, nil
}

func (*fakeGateway) GenerateReply(context.Context, llm.ReplyRequest) (string, error) {
	return "I'm listening.", nil
}
