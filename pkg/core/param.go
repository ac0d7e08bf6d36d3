package core

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/params"
)

// ParamProtocol serves parameter requests and streams the table.
//
// A single cursor is shared by the periodic Pump and by request handling:
// RequestList rewinds it, name matched replies report it as their index.
// Only the scheduler goroutine may call into ParamProtocol.
type ParamProtocol struct {
	*Context
	cursor int
}

// Cursor returns the streaming position.
func (p *ParamProtocol) Cursor() int {
	return p.cursor
}

// RequestList restarts streaming from the first entry.
func (p *ParamProtocol) RequestList() {
	p.cursor = 0
}

// RequestRead replies on ch with the selected entries.
func (p *ParamProtocol) RequestRead(ch mav.Channel, m *common.MessageParamRequestRead) {
	if !p.addressed(m.TargetSystem, m.TargetComponent) {
		return
	}
	key := params.NameOf(m.ParamId)
	if key.IsEmpty() {
		if i := int(m.ParamIndex); i >= 0 && i < p.Params.Len() {
			p.Out.WriteMessage(ch, p.valueMessage(i, i))
		}
		return
	}
	p.Params.Each(key, func(i int) {
		p.Out.WriteMessage(ch, p.valueMessage(i, p.cursor))
	})
}

// Set updates matching entries and broadcasts the ones which changed.
func (p *ParamProtocol) Set(m *common.MessageParamSet) {
	if !p.addressed(m.TargetSystem, m.TargetComponent) {
		return
	}
	p.Params.Each(params.NameOf(m.ParamId), func(i int) {
		changed, err := p.Params.Update(i, m.ParamValue)
		if err != nil {
			glog.Warningf("param %s rejected: %v", p.Params.At(i).Name, err)
			return
		}
		if changed {
			glog.Infof("param %s[%d] = %v", p.Params.At(i).Name, i, m.ParamValue)
			p.SyncParams()
			p.broadcast(p.valueMessage(i, p.cursor))
		}
	})
}

// Pump emits the entry at the cursor on both links and advances the
// cursor. It does nothing once the whole table has been sent.
func (p *ParamProtocol) Pump() {
	if p.cursor >= p.Params.Len() {
		return
	}
	p.broadcast(p.valueMessage(p.cursor, p.cursor))
	p.cursor++
}

func (p *ParamProtocol) valueMessage(i, reportedIndex int) *common.MessageParamValue {
	e := p.Params.At(i)
	return &common.MessageParamValue{
		ParamId:    e.Name.String(),
		ParamValue: e.Value,
		ParamType:  common.MAV_PARAM_TYPE_REAL32,
		ParamCount: uint16(p.Params.Len()),
		ParamIndex: uint16(reportedIndex),
	}
}
