package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/pixil98/go-testutil"
)

func startServer(t *testing.T) *NatsServer {
	t.Helper()

	ns, err := NewNatsServer(WithPort(server.RANDOM_PORT))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ns.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-ns.Ready():
	case err := <-done:
		t.Fatalf("server exited: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server not ready")
	}

	return ns
}

func TestSessionSubject(t *testing.T) {
	testutil.AssertEqual(t, "subject", SessionSubject("abc"), "session-abc")
}

func TestNatsServer_NotStarted(t *testing.T) {
	ns, err := NewNatsServer(WithPort(server.RANDOM_PORT))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	err = ns.Publish("session-abc", []byte("hi"))
	testutil.AssertErrorContains(t, err, "not started")

	_, err = ns.Subscribe("session-abc", func([]byte) {})
	testutil.AssertErrorContains(t, err, "not started")
}

func TestNatsPublisher_PublishToSession(t *testing.T) {
	ns := startServer(t)
	pub := NewNatsPublisher(ns)

	mine := make(chan string, 1)
	other := make(chan string, 1)

	unsub, err := pub.SubscribeSession("mine", func(data []byte) { mine <- string(data) })
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer unsub()

	unsubOther, err := pub.SubscribeSession("other", func(data []byte) { other <- string(data) })
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer unsubOther()

	err = pub.PublishToSession("mine", []byte("Orc attacks you for 3 damage!"))
	if err != nil {
		t.Fatalf("publishing: %v", err)
	}

	select {
	case got := <-mine:
		testutil.AssertEqual(t, "message", got, "Orc attacks you for 3 damage!")
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	select {
	case got := <-other:
		t.Errorf("other session received %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}
