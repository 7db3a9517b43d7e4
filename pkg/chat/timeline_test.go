package chat_test

import (
	"testing"

	"github.com/hishamahamad/stafford-gpt-ui/pkg/chat"
)

func TestTimeline_AppendOrder(t *testing.T) {
	tl := chat.NewTimeline("welcome")

	id1 := tl.Append(chat.RoleUser, "first")
	id2 := tl.Append(chat.RoleAssistant, "second")

	msgs := tl.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != chat.RoleSystem || msgs[0].Content != "welcome" {
		t.Errorf("greeting not first: %+v", msgs[0])
	}
	if msgs[1].ID != id1 || msgs[2].ID != id2 {
		t.Error("append order not preserved")
	}
	if id1 == id2 {
		t.Error("message IDs must be unique")
	}
}

func TestTimeline_SinglePending(t *testing.T) {
	tl := chat.NewTimeline("hi")

	id, err := tl.AppendPending()
	if err != nil {
		t.Fatal(err)
	}
	if !tl.HasPending() {
		t.Error("expected pending placeholder")
	}

	if _, err := tl.AppendPending(); err == nil {
		t.Error("second placeholder must be rejected")
	}

	if !tl.Resolve(id, "answer", nil) {
		t.Fatal("resolve of live placeholder failed")
	}
	if tl.HasPending() {
		t.Error("placeholder still pending after resolve")
	}
}

func TestTimeline_ResolveInPlace(t *testing.T) {
	tl := chat.NewTimeline("hi")
	tl.Append(chat.RoleUser, "question")
	id, err := tl.AppendPending()
	if err != nil {
		t.Fatal(err)
	}
	tlLen := tl.Len()

	citations := []chat.Citation{{Source: "handbook.pdf", Excerpt: "...", Score: 0.9, Internal: true}}
	if !tl.Resolve(id, "the answer", citations) {
		t.Fatal("resolve failed")
	}

	msgs := tl.Messages()
	if len(msgs) != tlLen {
		t.Errorf("resolve changed length: %d -> %d", tlLen, len(msgs))
	}
	final := msgs[len(msgs)-1]
	if final.ID != id {
		t.Error("placeholder ID not kept")
	}
	if final.Pending || final.Content != "the answer" {
		t.Errorf("placeholder not finalized: %+v", final)
	}
	if len(final.Citations) != 1 || !final.Citations[0].Internal {
		t.Errorf("citations not attached: %+v", final.Citations)
	}
}

func TestTimeline_ResetDropsPending(t *testing.T) {
	tl := chat.NewTimeline("hi")
	tl.Append(chat.RoleUser, "question")
	id, err := tl.AppendPending()
	if err != nil {
		t.Fatal(err)
	}

	tl.Reset("fresh greeting")

	msgs := tl.Messages()
	if len(msgs) != 1 || msgs[0].Role != chat.RoleSystem || msgs[0].Content != "fresh greeting" {
		t.Fatalf("reset should leave one system greeting, got %+v", msgs)
	}

	// The late resolution must be droppable, not duplicated.
	if tl.Resolve(id, "stale answer", nil) {
		t.Error("resolve after reset must report false")
	}
	if tl.Len() != 1 {
		t.Errorf("stale resolve mutated timeline, len=%d", tl.Len())
	}
}

func TestTimeline_ResolveUnknownID(t *testing.T) {
	tl := chat.NewTimeline("hi")
	if tl.Resolve("nope", "x", nil) {
		t.Error("resolve of unknown ID must report false")
	}
}
