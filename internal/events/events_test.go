package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	name   string
	err    error
	events []Event
}

func (p *recordingPublisher) Name() string { return p.name }

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.events = append(p.events, event)
	return p.err
}

func submitted() executor.TransactionResult {
	hash := common.HexToHash("0x01")
	return executor.TransactionResult{
		Chain:    web3.ChainBSC,
		Label:    "transfer",
		Hash:     &hash,
		Amount:   "1000",
		Token:    "BNB",
		State:    executor.StateSubmitted,
		Explorer: web3.TxURL(web3.ChainBSC, hash.Hex()),
	}
}

func TestFanoutForwardsTransitions(t *testing.T) {
	ok := &recordingPublisher{name: "ok"}
	failing := &recordingPublisher{name: "failing", err: errors.New("down")}
	fan := NewFanout(ok, nil, failing)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fan.now = func() time.Time { return fixed }

	fan.TransactionUpdated(context.Background(), submitted())

	require.Len(t, ok.events, 1)
	require.Len(t, failing.events, 1)
	ev := ok.events[0]
	assert.Equal(t, "submitted", ev.State)
	assert.Equal(t, "bsc", ev.Chain)
	assert.Equal(t, common.HexToHash("0x01").Hex(), ev.Hash)
	assert.Equal(t, fixed, ev.OccurredAt)

	err := fan.Publish(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publisher failing")
}

func TestFanoutWithExecutor(t *testing.T) {
	pub := &recordingPublisher{name: "rec"}
	fan := NewFanout(pub)
	res := submitted()
	res.State = executor.StateConfirmed
	status := uint64(1)
	res.Status = &status

	fan.TransactionUpdated(context.Background(), res)
	require.Len(t, pub.events, 1)
	require.NotNil(t, pub.events[0].Status)
	assert.Equal(t, uint64(1), *pub.events[0].Status)
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	closed        bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisherEncodesJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{ch: ch, key: "bnbagent.transactions"}
	ev := FromResult(submitted(), time.Unix(100, 0))

	require.NoError(t, p.Publish(context.Background(), ev))
	assert.Equal(t, "", ch.exchange)
	assert.Equal(t, "bnbagent.transactions", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, ev.Hash, ch.msg.MessageId)

	var decoded Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "transfer", decoded.Label)
	assert.Equal(t, "1000", decoded.Amount)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisherRequiresURL(t *testing.T) {
	_, err := NewAMQPPublisher(AMQPConfig{})
	require.Error(t, err)
}
