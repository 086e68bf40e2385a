package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"
)

func TestRedisStreamSink_PublishesEvents(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	sink := NewRedisStreamSink(client, RedisStreamSinkConfig{Stream: "test:events"})

	sink.Emit(escrow.GameCreated{GameID: 1, Creator: "0xcreator", Token: "USDC", EntryFee: 100, MaxPlayers: 4})
	sink.Emit(escrow.PlayerJoined{GameID: 1, Player: "0xalice"})

	entries, err := client.XRange(ctx, "test:events", "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, expected 2", len(entries))
	}

	if got := entries[0].Values["event"]; got != escrow.EventGameCreated {
		t.Errorf("event = %v, expected %s", got, escrow.EventGameCreated)
	}

	var created escrow.GameCreated
	if err := json.Unmarshal([]byte(entries[0].Values["payload"].(string)), &created); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if created.GameID != 1 || created.EntryFee != 100 {
		t.Errorf("payload = %+v, expected game 1 with fee 100", created)
	}

	if got := entries[1].Values["event"]; got != escrow.EventPlayerJoined {
		t.Errorf("event = %v, expected %s", got, escrow.EventPlayerJoined)
	}
}

func TestRedisStreamSink_SwallowsPublishErrors(t *testing.T) {
	client, mr := setupTestRedis(t)
	sink := NewRedisStreamSink(client, RedisStreamSinkConfig{})
	mr.Close()

	// must not panic or block past the timeout
	sink.Emit(escrow.TokenRemoved{Token: "USDC"})
}
