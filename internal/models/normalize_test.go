package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarOrDefault(t *testing.T) {
	assert.Equal(t, DefaultAvatarURL, AvatarOrDefault(""))
	assert.Equal(t, DefaultAvatarURL, AvatarOrDefault("   "))
	assert.Equal(t, "https://cdn/x.png", AvatarOrDefault("https://cdn/x.png"))
}

func TestNormalizeThreadDoesNotTouchInput(t *testing.T) {
	in := Thread{
		ID:      "t1",
		Type:    ThreadFriend,
		Members: []User{{ID: "a"}, {ID: "b", AvatarURL: "https://cdn/b.png"}},
	}

	out := NormalizeThread(in)

	assert.Equal(t, DefaultAvatarURL, out.Members[0].AvatarURL)
	assert.Equal(t, "https://cdn/b.png", out.Members[1].AvatarURL)
	assert.Equal(t, DefaultAvatarURL, out.AvatarURL)
	assert.Empty(t, in.Members[0].AvatarURL, "input members must stay untouched")
}

func TestNormalizeThreadDetailSender(t *testing.T) {
	d := NormalizeThreadDetail(ThreadDetail{
		Thread:   Thread{ID: "t1"},
		Messages: []Message{{ID: "m1", Sender: &User{ID: "a"}}, {ID: "m2"}},
	})

	assert.Equal(t, DefaultAvatarURL, d.Messages[0].Sender.AvatarURL)
	assert.Nil(t, d.Messages[1].Sender)
}

func TestPollVotedBy(t *testing.T) {
	p := Poll{Options: []PollOption{
		{ID: "o1", Voters: []string{"a", "b"}},
		{ID: "o2", Voters: []string{"b"}},
	}}

	assert.Equal(t, []string{"o1", "o2"}, p.VotedBy("b"))
	assert.Nil(t, p.VotedBy("c"))
}
