// redis.go
//
// GO4IT builder: background generation, preview and deployment service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of go4it-builder.
// go4it-builder is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// go4it-builder is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with go4it-builder.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "go4it:generation:"

// Channel is the Redis pub/sub channel carrying events for a generation
func Channel(generationID string) string {
	return channelPrefix + generationID
}

// RedisBus shares events between service instances through Redis pub/sub
type RedisBus struct {
	rdb *redis.Client
}

// NewRedisBus wraps a connected client
func NewRedisBus(rdb *redis.Client) *RedisBus {
	if rdb == nil {
		panic("redis connection is required")
	}
	return &RedisBus{rdb: rdb}
}

// Publish sends ev to the generation's channel
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, Channel(ev.GenerationID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe listens on the generation's channel until ctx is done or the returned func is called
func (b *RedisBus) Subscribe(ctx context.Context, generationID string) (<-chan Event, func()) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := b.rdb.Subscribe(ctx, Channel(generationID))
	out := make(chan Event, subscriberBuffer)

	// Wait for the subscription to be confirmed so no event published afterwards is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("Event subscription for %s failed: %v", generationID, err)
		cancel()
		pubsub.Close()
		close(out)
		return out, func() {}
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		defer stop()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("Dropping malformed event on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	return out, stop
}

// Close closes the Redis client
func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
