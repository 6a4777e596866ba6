package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type recorder struct {
	got []Message
	err error
}

func (r *recorder) Notify(_ context.Context, m Message) error {
	r.got = append(r.got, m)
	return r.err
}

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	a := &recorder{}
	b := &recorder{err: errors.New("fcm down")}
	c := &recorder{}

	err := Fanout{a, b, nil, c}.Notify(context.Background(), Message{UserID: "u1", Title: "hej"})
	if err == nil || !strings.Contains(err.Error(), "fcm down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(a.got) != 1 || len(c.got) != 1 {
		t.Errorf("every channel should be called: a=%d c=%d", len(a.got), len(c.got))
	}
}

func TestSafeSwallowsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	Safe(context.Background(), &recorder{err: errors.New("boom")}, log, Message{UserID: "u1", Type: TypeChatMessage})
	if !strings.Contains(buf.String(), "notification failed") {
		t.Errorf("expected a warning, got %q", buf.String())
	}

	// no recipient, nothing to do
	r := &recorder{}
	Safe(context.Background(), r, log, Message{})
	if len(r.got) != 0 {
		t.Error("message without recipient should be dropped")
	}
}

type fakeTwilio struct {
	params []*api.CreateMessageParams
}

func (f *fakeTwilio) CreateMessage(p *api.CreateMessageParams) (*api.ApiV2010Message, error) {
	f.params = append(f.params, p)
	return &api.ApiV2010Message{}, nil
}

func TestSMSOnlyWithPhone(t *testing.T) {
	ft := &fakeTwilio{}
	s := &SMS{api: ft, fromNumber: "+46700000000"}

	if err := s.Notify(context.Background(), Message{UserID: "u1", Title: "Kontakt upplåst"}); err != nil {
		t.Fatal(err)
	}
	if len(ft.params) != 0 {
		t.Fatal("no phone, no sms")
	}

	if err := s.Notify(context.Background(), Message{UserID: "u1", Title: "Kontakt upplåst", Phone: "+46701234567"}); err != nil {
		t.Fatal(err)
	}
	if len(ft.params) != 1 {
		t.Fatalf("expected one sms, got %d", len(ft.params))
	}
	p := ft.params[0]
	if *p.To != "+46701234567" || *p.From != "+46700000000" || !strings.HasPrefix(*p.Body, "VägVänner: Kontakt upplåst") {
		t.Errorf("unexpected params to=%s from=%s body=%s", *p.To, *p.From, *p.Body)
	}
}
