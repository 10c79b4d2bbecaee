/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package leadership elects the one instance that drives a channel's player
// when several run as hot standbys.
package leadership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

const (
	// Election key prefix in Redis; the channel number is appended.
	electionKeyPrefix = "technicaldirector:leader:ch"

	// Default lease duration - leader must renew before this expires
	defaultLeaseDuration = 15 * time.Second

	// Default retry interval - how often the lease is renewed or contested
	defaultRetryInterval = 2 * time.Second
)

// releaseScript deletes the key only if we still own it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Election manages distributed leader election using Redis
type Election struct {
	client     *redis.Client
	logger     zerolog.Logger
	config     ElectionConfig
	instanceID string

	isLeader atomic.Bool
	leaderCh chan bool
	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// ElectionConfig configures leader election behavior
type ElectionConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ElectionKey is the Redis key used for leader election
	ElectionKey string

	// LeaseDuration is how long the leader lease is valid
	LeaseDuration time.Duration

	// RetryInterval is how often the lease is renewed or contested
	RetryInterval time.Duration

	// InstanceID uniquely identifies this instance
	InstanceID string
}

// DefaultConfig returns default election configuration for a channel.
func DefaultConfig(channel int) ElectionConfig {
	return ElectionConfig{
		RedisAddr:     "localhost:6379",
		ElectionKey:   fmt.Sprintf("%s%d", electionKeyPrefix, channel),
		LeaseDuration: defaultLeaseDuration,
		RetryInterval: defaultRetryInterval,
		InstanceID:    uuid.NewString(),
	}
}

// NewElection creates a new leader election manager. Unlike the cache, an
// unreachable Redis is an error: running unelected would put two players on
// air.
func NewElection(config ElectionConfig, logger zerolog.Logger) (*Election, error) {
	if config.ElectionKey == "" {
		return nil, errors.New("election key is required")
	}
	if config.LeaseDuration <= 0 {
		config.LeaseDuration = defaultLeaseDuration
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = defaultRetryInterval
	}
	if config.RetryInterval >= config.LeaseDuration {
		return nil, fmt.Errorf("retry interval %s must be shorter than lease %s", config.RetryInterval, config.LeaseDuration)
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().
		Str("redis_addr", config.RedisAddr).
		Str("key", config.ElectionKey).
		Str("instance_id", config.InstanceID).
		Msg("connected to Redis for leader election")

	return &Election{
		client:     client,
		logger:     logger.With().Str("component", "leader_election").Logger(),
		config:     config,
		instanceID: config.InstanceID,
		leaderCh:   make(chan bool, 1),
		done:       make(chan struct{}),
	}, nil
}

// Start begins campaigning. Status changes arrive on LeaderCh.
func (e *Election) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.logger.Info().
		Dur("lease_duration", e.config.LeaseDuration).
		Msg("starting leader election")

	go e.campaignLoop(ctx)
}

// Stop ends the campaign, releases the lease if held and closes the Redis
// connection.
func (e *Election) Stop() error {
	var err error
	e.stopOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
			<-e.done
		}

		if e.isLeader.Load() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if rerr := e.releaseLock(ctx); rerr != nil {
				e.logger.Error().Err(rerr).Msg("failed to release leadership lock")
			}
			e.updateLeadershipStatus(false)
		}

		err = e.client.Close()
	})
	return err
}

// IsLeader returns whether this instance is currently the leader
func (e *Election) IsLeader() bool {
	return e.isLeader.Load()
}

// LeaderCh returns a channel that receives leadership status changes. Only
// the latest change is buffered.
func (e *Election) LeaderCh() <-chan bool {
	return e.leaderCh
}

// GetLeader returns the current leader instance ID
func (e *Election) GetLeader(ctx context.Context) (string, error) {
	leaderID, err := e.client.Get(ctx, e.config.ElectionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get leader: %w", err)
	}
	return leaderID, nil
}

func (e *Election) campaignLoop(ctx context.Context) {
	defer close(e.done)

	e.attemptLeadership(ctx)

	ticker := time.NewTicker(e.config.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.attemptLeadership(ctx)
		}
	}
}

func (e *Election) attemptLeadership(ctx context.Context) {
	acquired, err := e.acquireLock(ctx)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Error().Err(err).Msg("failed to acquire leadership lock")
		}
		e.updateLeadershipStatus(false)
		return
	}
	e.updateLeadershipStatus(acquired)
}

// acquireLock acquires the lease or renews it if we already hold it.
func (e *Election) acquireLock(ctx context.Context) (bool, error) {
	ok, err := e.client.SetNX(ctx, e.config.ElectionKey, e.instanceID, e.config.LeaseDuration).Result()
	if err != nil {
		return false, fmt.Errorf("set lock: %w", err)
	}
	if ok {
		return true, nil
	}

	currentLeader, err := e.client.Get(ctx, e.config.ElectionKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get current leader: %w", err)
	}
	if currentLeader != e.instanceID {
		return false, nil
	}

	if err := e.client.Expire(ctx, e.config.ElectionKey, e.config.LeaseDuration).Err(); err != nil {
		return false, fmt.Errorf("renew lock: %w", err)
	}
	return true, nil
}

func (e *Election) releaseLock(ctx context.Context) error {
	if err := e.client.Eval(ctx, releaseScript, []string{e.config.ElectionKey}, e.instanceID).Err(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	e.logger.Info().Msg("released leadership lock")
	return nil
}

func (e *Election) updateLeadershipStatus(isLeader bool) {
	if e.isLeader.Swap(isLeader) == isLeader {
		return
	}

	if isLeader {
		e.logger.Info().Str("instance_id", e.instanceID).Msg("acquired leadership")
		telemetry.LeaderElectionStatus.Set(1)
		telemetry.LeaderElectionChanges.WithLabelValues("acquired").Inc()
	} else {
		e.logger.Warn().Str("instance_id", e.instanceID).Msg("lost leadership")
		telemetry.LeaderElectionStatus.Set(0)
		telemetry.LeaderElectionChanges.WithLabelValues("lost").Inc()
	}

	// Keep only the latest status.
	select {
	case <-e.leaderCh:
	default:
	}
	e.leaderCh <- isLeader
}

// ErrLeadershipLost is returned by Watch when another instance takes over.
var ErrLeadershipLost = errors.New("leadership lost")

// Await blocks until this instance leads or ctx is done.
func (e *Election) Await(ctx context.Context) error {
	if e.IsLeader() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case leader := <-e.leaderCh:
			if leader {
				return nil
			}
		}
	}
}

// Watch blocks until leadership is lost or ctx is done. Losing the lease
// returns ErrLeadershipLost; the caller must stop driving the player.
func (e *Election) Watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case leader := <-e.leaderCh:
			if !leader {
				return ErrLeadershipLost
			}
		}
	}
}
