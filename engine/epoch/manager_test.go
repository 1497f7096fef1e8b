package epoch

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/rpc"
	rpcmock "github.com/foresterd/forester/module/rpc/mock"
	signermock "github.com/foresterd/forester/module/signer/mock"
	"github.com/foresterd/forester/module/slottracker"
)

func TestNewManagerWithRetry_SucceedsOnFirstProbe(t *testing.T) {
	rpcClient := new(rpcmock.Client)
	rpcClient.On("GetSlot", tmock.Anything).Return(uint64(5), nil)
	tracker := slottracker.New(rpcClient, 0)

	m, err := NewManagerWithRetry(context.Background(), rpcClient, tracker, testProtocol(), func(uint64) *Controller { return nil }, zerolog.Nop(), time.Millisecond, 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestNewManagerWithRetry_RetriesUntilProbeSucceeds(t *testing.T) {
	rpcClient := new(rpcmock.Client)
	rpcClient.On("GetSlot", tmock.Anything).Return(uint64(0), assertError{}).Twice()
	rpcClient.On("GetSlot", tmock.Anything).Return(uint64(5), nil)
	tracker := slottracker.New(rpcClient, 0)

	m, err := NewManagerWithRetry(context.Background(), rpcClient, tracker, testProtocol(), func(uint64) *Controller { return nil }, zerolog.Nop(), time.Millisecond, 5*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, m)
	rpcClient.AssertNumberOfCalls(t, "GetSlot", 3)
}

func TestNewManagerWithRetry_GivesUpWhenContextCancelled(t *testing.T) {
	rpcClient := new(rpcmock.Client)
	rpcClient.On("GetSlot", tmock.Anything).Return(uint64(0), assertError{})
	tracker := slottracker.New(rpcClient, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewManagerWithRetry(ctx, rpcClient, tracker, testProtocol(), func(uint64) *Controller { return nil }, zerolog.Nop(), time.Millisecond, 5*time.Millisecond)
	require.Error(t, err)
}

func TestManagerRun_SpawnsOneControllerPerNewEpochThenStopsOnCancel(t *testing.T) {
	rpcClient := new(rpcmock.Client)
	protocol := testProtocol()
	// Slot 10 is within epoch 0's registration window (ends at 100).
	rpcClient.On("GetSlot", tmock.Anything).Return(uint64(10), nil)
	rpcClient.On("CreateAndSendTransaction", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).Return(rpc.Signature{}, nil)
	rpcClient.On("GetAccount", tmock.Anything, tmock.Anything).Return(&rpc.AccountInfo{Data: make([]byte, 48)}, nil)
	tracker := slottracker.New(rpcClient, 0)

	s := new(signermock.Signer)
	s.On("Payer").Return(forester.Pubkey{7})

	spawned := make(chan uint64, 4)
	factory := func(epoch uint64) *Controller {
		spawned <- epoch
		return NewController(ControllerDeps{
			RPCClient:   rpcClient,
			Signer:      s,
			SlotTracker: tracker,
			Logger:      zerolog.Nop(),
			Protocol:    protocol,
		}, epoch)
	}

	m := NewManager(rpcClient, tracker, protocol, factory, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case epoch := <-spawned:
		require.Equal(t, uint64(0), epoch)
	case <-time.After(time.Second):
		t.Fatal("expected a controller to be spawned for epoch 0")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
