package core

import (
	"testing"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/minimal"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/params"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

func TestTimeSync(t *testing.T) {
	env := newTestEnv()
	env.receive(mav.Channel2, &common.MessageSystemTime{TimeUnixUsec: 1600000000000000})
	offset, ok := env.State.UnixOffset()
	require.True(t, ok)
	require.Equal(t, int64(1600000000000000-1000), offset)

	env.clock.now = 5000
	env.receive(mav.Channel1, &common.MessageSystemTime{TimeUnixUsec: 1700000000000000})
	offset2, _ := env.State.UnixOffset()
	require.Equal(t, offset, offset2)
	require.Equal(t, uint64(1600000000004000), env.UnixTime())
}

func TestPing(t *testing.T) {
	env := newTestEnv()
	env.State.SetUnixOffset(100)
	env.receive(mav.Channel2, &common.MessagePing{Seq: 77, TimeUsec: 1})
	replies := env.out.messages(mav.Channel2)
	require.Len(t, replies, 1)
	require.Equal(t, &common.MessagePing{
		TimeUsec:        1100,
		Seq:             77,
		TargetSystem:    gcsSystemID,
		TargetComponent: gcsComponentID,
	}, replies[0])
	require.Empty(t, env.out.messages(mav.Channel1))

	env.out.reset()
	env.receive(mav.Channel2, &common.MessagePing{Seq: 78, TargetSystem: 42})
	require.Empty(t, env.out.messages(mav.Channel2))
}

func TestRequestDataStream(t *testing.T) {
	testCases := []struct {
		id    uint8
		param params.Index
	}{
		{1, params.SendSlotRawIMU},
		{2, params.SendSlotAttitude},
		{3, params.SendSlotRemoteControl},
		{4, params.SendSlotControllerOutput},
		{6, params.SendSlotDebug5},
		{10, params.SendSlotDebug2},
		{11, params.SendSlotDebug4},
		{12, params.SendSlotDebug6},
	}
	for _, tc := range testCases {
		env := newTestEnv()
		env.receive(mav.Channel1, &common.MessageRequestDataStream{ReqStreamId: tc.id, StartStop: 1})
		require.Equal(t, float32(1), env.Context.Params.Get(tc.param), "stream %d", tc.id)
		env.receive(mav.Channel1, &common.MessageRequestDataStream{ReqStreamId: tc.id, StartStop: 0})
		require.Equal(t, float32(0), env.Context.Params.Get(tc.param), "stream %d", tc.id)
	}

	env := newTestEnv()
	before := *env.Context.Params
	for _, id := range []uint8{0, 5, 7, 13, 200} {
		env.receive(mav.Channel1, &common.MessageRequestDataStream{ReqStreamId: id, StartStop: 1})
	}
	require.Equal(t, before, *env.Context.Params)
}

func TestSendSystemState(t *testing.T) {
	env := newTestEnv()
	env.State.Status = vehicle.StatusActive
	env.State.MavMode = 0x81
	env.State.CPUUsage = 350
	env.State.I2C0Errs = 4
	env.State.Comm.Links[0] = vehicle.LinkStats{Drops: 10, Successes: 990}
	env.SendSystemState()

	for _, ch := range mav.Channels {
		msgs := env.out.messages(ch)
		require.Len(t, msgs, 2)
		hb := msgs[0].(*minimal.MessageHeartbeat)
		require.Equal(t, minimal.MAV_TYPE(2), hb.Type)
		require.Equal(t, minimal.MAV_MODE_FLAG(0x81), hb.BaseMode)
		require.Equal(t, minimal.MAV_STATE(vehicle.StatusActive), hb.SystemStatus)
		st := msgs[1].(*common.MessageSysStatus)
		require.Equal(t, uint16(11), st.DropRateComm)
		require.Equal(t, uint16(350), st.Load)
		require.Equal(t, uint16(4), st.ErrorsCount1)
	}
}

func TestSetMode(t *testing.T) {
	env := newTestEnv()
	env.receive(mav.Channel2, &common.MessageSetMode{TargetSystem: 42, BaseMode: 0x80})
	require.True(t, env.State.Armed())
	require.Len(t, env.out.messages(mav.Channel1), 2)
	require.Len(t, env.out.messages(mav.Channel2), 2)

	env.out.reset()
	env.receive(mav.Channel2, &common.MessageSetMode{TargetSystem: 1, BaseMode: 0})
	require.True(t, env.State.Armed())
	require.Empty(t, env.out.messages(mav.Channel2))
}
