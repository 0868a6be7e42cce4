package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/consulatcore/scheduling/libs/runtime"
)

// Publishes a fake appointment-requested event so the consumer path can be
// exercised without the request service running.
func main() {
	var (
		brokers  = flag.String("brokers", runtime.Getenv("KAFKA_BROKERS", "localhost:9092"), "kafka brokers, comma separated")
		orgID    = flag.String("org-id", runtime.Getenv("ORG_ID", ""), "target org id")
		profile  = flag.String("profile-id", runtime.Getenv("PROFILE_ID", ""), "citizen profile id")
		slotID   = flag.String("slot-id", runtime.Getenv("SLOT_ID", ""), "capacity slot id (optional)")
		startStr = flag.String("start", "", "free-form start, RFC3339 (ignored with -slot-id)")
		endStr   = flag.String("end", "", "free-form end, RFC3339 (ignored with -slot-id)")
		apptType = flag.String("type", runtime.Getenv("APPOINTMENT_TYPE", "consultation"), "appointment type")
		timezone = flag.String("timezone", runtime.Getenv("TIMEZONE", "UTC"), "appointment timezone")
	)
	flag.Parse()

	if strings.TrimSpace(*orgID) == "" {
		fatal("ORG_ID is required")
	}
	if strings.TrimSpace(*profile) == "" {
		fatal("PROFILE_ID is required")
	}

	body := map[string]any{
		"request_id": uuid.NewString(),
		"org_id":     *orgID,
		"timezone":   *timezone,
		"type":       *apptType,
		"profile":    map[string]any{"id": *profile},
	}
	if strings.TrimSpace(*slotID) != "" {
		body["slot_id"] = *slotID
	} else {
		start, err := time.Parse(time.RFC3339, *startStr)
		if err != nil {
			fatal("valid -start is required without -slot-id")
		}
		end, err := time.Parse(time.RFC3339, *endStr)
		if err != nil {
			fatal("valid -end is required without -slot-id")
		}
		body["start_at"] = start.Format(time.RFC3339)
		body["end_at"] = end.Format(time.RFC3339)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		fatal(err.Error())
	}

	const topic = "requests.appointment.requested.v1"
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: strings.Split(*brokers, ","),
		Topic:   topic,
	})
	defer writer.Close()

	eventID := uuid.NewString()
	err = writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(*orgID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte(topic)},
		},
	})
	if err != nil {
		fatal(err.Error())
	}
	fmt.Printf("published event_id=%s\n", eventID)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
