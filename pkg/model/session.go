package model

// Session is an authenticated backend session: the opaque auth token and
// the auth record it was issued for. The JSON layout is the persisted one.
type Session struct {
	Token  string `json:"token"`
	Record Record `json:"user"`
}

// IsZero reports whether the session carries no token.
func (s *Session) IsZero() bool {
	return s == nil || s.Token == ""
}

// Clone returns a copy whose record map is not shared with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{Token: s.Token}
	if s.Record != nil {
		out.Record = make(Record, len(s.Record))
		for k, v := range s.Record {
			out.Record[k] = v
		}
	}
	return out
}
