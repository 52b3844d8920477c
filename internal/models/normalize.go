package models

import "strings"

// DefaultAvatarURL is shown whenever a user or group has no picture.
const DefaultAvatarURL = "https://static.teachmate.app/avatars/default.png"

// AvatarOrDefault is the single fallback for missing avatar URLs.
func AvatarOrDefault(url string) string {
	if strings.TrimSpace(url) == "" {
		return DefaultAvatarURL
	}
	return url
}

// NormalizeUser fills defaults on a freshly decoded user.
func NormalizeUser(u User) User {
	u.AvatarURL = AvatarOrDefault(u.AvatarURL)
	return u
}

func NormalizeUsers(users []User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = NormalizeUser(u)
	}
	return out
}

func NormalizeThread(t Thread) Thread {
	t.Members = NormalizeUsers(t.Members)
	t.AvatarURL = AvatarOrDefault(t.AvatarURL)
	return t
}

func NormalizeThreads(threads []Thread) []Thread {
	out := make([]Thread, len(threads))
	for i, t := range threads {
		out[i] = NormalizeThread(t)
	}
	return out
}

func NormalizeMessage(m Message) Message {
	if m.Sender != nil {
		s := NormalizeUser(*m.Sender)
		m.Sender = &s
	}
	return m
}

func NormalizeThreadDetail(d ThreadDetail) ThreadDetail {
	d.Thread = NormalizeThread(d.Thread)
	msgs := make([]Message, len(d.Messages))
	for i, m := range d.Messages {
		msgs[i] = NormalizeMessage(m)
	}
	d.Messages = msgs
	return d
}

func NormalizeFriendRequests(reqs []FriendRequest) []FriendRequest {
	out := make([]FriendRequest, len(reqs))
	for i, r := range reqs {
		r.Requester = NormalizeUser(r.Requester)
		out[i] = r
	}
	return out
}
