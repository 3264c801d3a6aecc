package broker

type Any interface{}

type Headers map[string]string

// Message is the transport independent view of a received or published payload.
type Message struct {
	Headers Headers
	Body    Any
}

func (m Message) GetHeader(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}
