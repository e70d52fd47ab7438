package domain

import (
	"bytes"
	"encoding/json"
)

// Snapshot is the full serializable state of a room as sent to
// clients. Seq orders snapshots of the same room and is never
// serialized.
type Snapshot struct {
	Seq      uint64   `json:"-"`
	ID       string   `json:"id"`
	Users    UserList `json:"users"`
	Revealed bool     `json:"revealed"`
}

// UserView is one participant as seen by clients. Estimate is null
// until the room is revealed; Voted tells renderers whether the user
// has a hidden vote in the meantime.
type UserView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Estimate *string `json:"estimate"`
	Voted    bool    `json:"voted"`
}

// UserList marshals to a JSON object keyed by user id, like the map
// clients expect, but preserves join order for stable listing.
type UserList []UserView

func (l UserList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, user := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(user.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(user)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *UserList) UnmarshalJSON(data []byte) error {
	var m map[string]UserView
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*l = make(UserList, 0, len(m))
	for _, v := range m {
		*l = append(*l, v)
	}
	return nil
}

// Get returns the view for a user id, if present.
func (l UserList) Get(userID string) (UserView, bool) {
	for _, u := range l {
		if u.ID == userID {
			return u, true
		}
	}
	return UserView{}, false
}
