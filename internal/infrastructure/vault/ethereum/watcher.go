package ethereumvault

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fairplay-vault/sentinel/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

const resubscribeDelay = 5 * time.Second

var errMalformedLog = errors.New("malformed PoolCreated log")

func (s *service) PoolCreatedEvents(ctx context.Context) <-chan domain.PoolCreatedEvent {
	events := make(chan domain.PoolCreatedEvent)
	go s.watchPoolCreated(ctx, events)
	return events
}

// watchPoolCreated subscribes to PoolCreated logs and resubscribes with a
// delay whenever the subscription drops. RPC transports without subscription
// support fall back to periodic log polling. The channel is closed only when
// ctx is done.
func (s *service) watchPoolCreated(ctx context.Context, events chan<- domain.PoolCreatedEvent) {
	defer close(events)

	query := ethereum.FilterQuery{
		Addresses: []common.Address{s.vaultAddress},
		Topics:    [][]common.Hash{{s.vaultAbi.Events["PoolCreated"].ID}},
	}

	logs := make(chan types.Log)
	for {
		sub, err := s.client.SubscribeFilterLogs(ctx, query, logs)
		if err != nil {
			log.WithError(err).Warn("log subscription unavailable, falling back to polling")
			s.pollPoolCreated(ctx, query, events)
			return
		}

		log.Debug("subscribed to PoolCreated logs")

	receive:
		for {
			select {
			case <-ctx.Done():
				sub.Unsubscribe()
				return
			case err := <-sub.Err():
				log.WithError(err).Warn("PoolCreated subscription dropped, resubscribing")
				sub.Unsubscribe()
				select {
				case <-ctx.Done():
					return
				case <-time.After(resubscribeDelay):
				}
				break receive
			case l := <-logs:
				s.deliverPoolCreated(ctx, l, events)
			}
		}
	}
}

func (s *service) pollPoolCreated(
	ctx context.Context, query ethereum.FilterQuery, events chan<- domain.PoolCreatedEvent,
) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var fromBlock uint64
	if header, err := s.client.HeaderByNumber(ctx, nil); err == nil {
		fromBlock = header.Number.Uint64() + 1
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		query.FromBlock = new(big.Int).SetUint64(fromBlock)
		logs, err := s.client.FilterLogs(ctx, query)
		if err != nil {
			log.WithError(err).Warn("failed to poll PoolCreated logs")
			continue
		}

		for _, l := range logs {
			if l.Removed {
				continue
			}
			s.deliverPoolCreated(ctx, l, events)
			if l.BlockNumber >= fromBlock {
				fromBlock = l.BlockNumber + 1
			}
		}
	}
}

func (s *service) deliverPoolCreated(
	ctx context.Context, l types.Log, events chan<- domain.PoolCreatedEvent,
) {
	event, err := s.parsePoolCreated(l)
	if err != nil {
		log.WithError(err).Warnf("skipping malformed PoolCreated log (tx %s)", l.TxHash.Hex())
		return
	}

	select {
	case events <- *event:
	case <-ctx.Done():
	}
}

func (s *service) parsePoolCreated(l types.Log) (*domain.PoolCreatedEvent, error) {
	if len(l.Topics) < 3 {
		return nil, errMalformedLog
	}

	// poolId and creator are indexed, the rest of the payload is in the data
	poolID := new(big.Int).SetBytes(l.Topics[1].Bytes()).Uint64()
	creator := common.BytesToAddress(l.Topics[2].Bytes())

	values, err := s.vaultAbi.Events["PoolCreated"].Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return nil, err
	}
	hasSentinel, ok := values[len(values)-1].(bool)
	if !ok {
		return nil, errMalformedLog
	}

	return &domain.PoolCreatedEvent{
		PoolID:      poolID,
		Creator:     strings.ToLower(creator.Hex()),
		HasSentinel: hasSentinel,
	}, nil
}
