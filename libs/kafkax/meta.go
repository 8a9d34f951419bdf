package kafkax

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventMeta identifies a message for inbox de-duplication.
type EventMeta struct {
	EventID   string
	EventType string
}

// ExtractEventMeta reads the event_id and event_type headers; the message key
// is ignored. Without an event_id header the id is a name-based UUID over
// topic, partition and offset, so only redeliveries of one record collapse.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	meta := EventMeta{
		EventID:   strings.TrimSpace(HeaderValue(msg.Headers, "event_id")),
		EventType: strings.TrimSpace(HeaderValue(msg.Headers, "event_type")),
	}
	if meta.EventID == "" {
		meta.EventID = recordID(msg)
	}
	if meta.EventType == "" {
		meta.EventType = msg.Topic
	}
	return meta
}

func recordID(msg kafka.Message) string {
	name := msg.Topic + "/" + strconv.Itoa(msg.Partition) + "/" + strconv.FormatInt(msg.Offset, 10)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
