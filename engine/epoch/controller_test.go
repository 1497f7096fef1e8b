package epoch

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/counter"
	"github.com/foresterd/forester/module/drainer"
	pubsubmock "github.com/foresterd/forester/module/pubsub/mock"
	"github.com/foresterd/forester/module/queuefeed"
	"github.com/foresterd/forester/module/rpc"
	rpcmock "github.com/foresterd/forester/module/rpc/mock"
	signermock "github.com/foresterd/forester/module/signer/mock"
	"github.com/foresterd/forester/module/slottracker"
)

func testProtocol() forester.ProtocolConfig {
	return forester.ProtocolConfig{
		SlotsPerEpoch:           1000,
		RegistrationPhaseLength: 100,
		ActivePhaseLength:       800,
		ReportWorkPhaseLength:   90,
		PostPhaseLength:         10,
		LightSlotLength:         10,
	}
}

func baseDeps(t *testing.T) (ControllerDeps, *rpcmock.Client, *signermock.Signer) {
	t.Helper()
	rpcClient := new(rpcmock.Client)
	s := new(signermock.Signer)
	s.On("Payer").Return(forester.Pubkey{9})

	deps := ControllerDeps{
		RPCClient: rpcClient,
		Signer:    s,
		Protocol:  testProtocol(),
		ProgramID: forester.Pubkey{1},
		Logger:    zerolog.Nop(),
		ReportCh:  make(chan forester.WorkReport, 1),
		Counter:   counter.New(),
	}
	return deps, rpcClient, s
}

func TestRegister_FailsWhenRegistrationWindowClosed(t *testing.T) {
	deps, rpcClient, _ := baseDeps(t)
	rpcClient.On("GetSlot", tmock.Anything).Return(uint64(150), nil)

	c := NewController(deps, 0)
	_, err := c.register(context.Background())
	require.ErrorIs(t, err, forester.ErrRegistrationTooLate)
}

func TestRegister_SubmitsAndDecodesPDA(t *testing.T) {
	deps, rpcClient, _ := baseDeps(t)
	rpcClient.On("GetSlot", tmock.Anything).Return(uint64(10), nil)
	rpcClient.On("CreateAndSendTransaction", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return(rpc.Signature{}, nil)
	rpcClient.On("GetAccount", tmock.Anything, tmock.Anything).
		Return(&rpc.AccountInfo{Data: make([]byte, 48)}, nil)

	c := NewController(deps, 0)
	info, err := c.register(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(0), info.EpochNumber)
	require.Equal(t, uint64(0), info.Phases.Registration.Start)
}

func TestWaitActive_DerivesSchedulesForEachTree(t *testing.T) {
	deps, rpcClient, _ := baseDeps(t)
	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{2}, Queue: forester.Pubkey{3}, TreeType: forester.TreeTypeState}
	deps.Trees = []forester.TreeAccounts{tree}

	tracker := slottracker.New(rpcClient, 0)
	rpcClient.On("GetSlot", tmock.Anything).Return(uint64(100), nil).Once()
	require.NoError(t, tracker.Refresh(context.Background()))
	deps.SlotTracker = tracker

	rpcClient.On("CreateAndSendTransaction", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return(rpc.Signature{}, nil)
	rpcClient.On("GetAccount", tmock.Anything, tmock.Anything).
		Return(&rpc.AccountInfo{Data: make([]byte, 48)}, nil)

	c := NewController(deps, 0)
	info := &forester.ForesterEpochInfo{EpochNumber: 0, Phases: deps.Protocol.PhasesOf(0)}
	out, err := c.waitActive(context.Background(), info)
	require.NoError(t, err)
	require.Len(t, out.Trees, 1)
	require.Equal(t, tree.Queue, out.Trees[0].Tree.Queue)
	require.Len(t, out.Trees[0].Slots, int(deps.Protocol.EpochLengthInLightSlots()))
}

func TestPerformWork_ExitsImmediatelyWhenSlotPastActiveEnd(t *testing.T) {
	deps, rpcClient, _ := baseDeps(t)
	phases := deps.Protocol.PhasesOf(0)

	tracker := slottracker.New(rpcClient, 0)
	rpcClient.On("GetSlot", tmock.Anything).Return(phases.Active.End, nil).Once()
	require.NoError(t, tracker.Refresh(context.Background()))
	deps.SlotTracker = tracker

	pubsubClient := new(pubsubmock.Client)
	pubsubClient.On("Subscribe", tmock.Anything).Return(nil, nil, nil)
	deps.Feed = queuefeed.New(rpcClient, pubsubClient, nil)
	deps.DrainerCfg = drainer.Config{IndexerBatchSize: 1, IndexerMaxConcurrentBatches: 1, TransactionBatchSize: 1, TransactionMaxConcurrentBatches: 1}

	c := NewController(deps, 0)
	info := &forester.ForesterEpochInfo{EpochNumber: 0, Phases: phases}
	err := c.performWork(context.Background(), info)
	require.NoError(t, err)
	pubsubClient.AssertCalled(t, "Subscribe", tmock.Anything)
}

func TestPerformWork_PropagatesSubscribeError(t *testing.T) {
	deps, rpcClient, _ := baseDeps(t)
	phases := deps.Protocol.PhasesOf(0)

	tracker := slottracker.New(rpcClient, 0)
	rpcClient.On("GetSlot", tmock.Anything).Return(phases.Active.End, nil).Once()
	require.NoError(t, tracker.Refresh(context.Background()))
	deps.SlotTracker = tracker

	pubsubClient := new(pubsubmock.Client)
	pubsubClient.On("Subscribe", tmock.Anything).Return(nil, nil, assertError{})
	deps.Feed = queuefeed.New(rpcClient, pubsubClient, nil)

	c := NewController(deps, 0)
	info := &forester.ForesterEpochInfo{EpochNumber: 0, Phases: phases}
	err := c.performWork(context.Background(), info)
	require.Error(t, err)
}

func TestReport_SubmitsAndPublishesWorkReport(t *testing.T) {
	deps, rpcClient, _ := baseDeps(t)
	rpcClient.On("CreateAndSendTransaction", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return(rpc.Signature{}, nil)
	deps.Counter.Increment(0)
	deps.Counter.Increment(0)

	c := NewController(deps, 0)
	info := &forester.ForesterEpochInfo{EpochNumber: 0, Phases: deps.Protocol.PhasesOf(0)}
	err := c.report(context.Background(), info)
	require.NoError(t, err)

	select {
	case report := <-deps.ReportCh:
		require.Equal(t, uint64(2), report.ProcessedItemsCount)
	default:
		t.Fatal("expected a published work report")
	}
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
