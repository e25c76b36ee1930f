package network

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/wavesim/sim"
)

// ContextFunc receives a trace together with the concrete path of the object
// that fired it.
type ContextFunc func(context string, ctx sim.HookCtx)

type traceTarget interface {
	TypeName() string
	ConnectTrace(source string, hook sim.Hook) error
}

type resolvedTarget struct {
	path   string
	target traceTarget
}

type tracePath struct {
	nodeSel  string
	list     string
	itemSel  string
	typeName string
	source   string
}

// parseTracePath splits paths such as
//
//	/NodeList/*/ApplicationList/0/$PacketSink/RxWithAddresses
//	/NodeList/1/DeviceList/*/MacRx
func parseTracePath(path string) (tracePath, error) {
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segs) != 5 && len(segs) != 6 {
		return tracePath{}, fmt.Errorf("%w: %q", ErrInvalidTracePath, path)
	}

	p := tracePath{
		nodeSel: segs[1],
		list:    segs[2],
		itemSel: segs[3],
		source:  segs[len(segs)-1],
	}

	if segs[0] != "NodeList" {
		return tracePath{}, fmt.Errorf("%w: %q must start with /NodeList",
			ErrInvalidTracePath, path)
	}

	if p.list != "ApplicationList" && p.list != "DeviceList" {
		return tracePath{}, fmt.Errorf("%w: %q has unknown list %s",
			ErrInvalidTracePath, path, p.list)
	}

	if len(segs) == 6 {
		if !strings.HasPrefix(segs[4], "$") {
			return tracePath{}, fmt.Errorf("%w: %q type segment must start with $",
				ErrInvalidTracePath, path)
		}

		p.typeName = strings.TrimPrefix(segs[4], "$")
	}

	if err := checkSelector(p.nodeSel); err != nil {
		return tracePath{}, fmt.Errorf("%w: %q: %v", ErrInvalidTracePath, path, err)
	}

	if err := checkSelector(p.itemSel); err != nil {
		return tracePath{}, fmt.Errorf("%w: %q: %v", ErrInvalidTracePath, path, err)
	}

	return p, nil
}

func checkSelector(sel string) error {
	if sel == "*" {
		return nil
	}

	if _, err := strconv.Atoi(sel); err != nil {
		return fmt.Errorf("bad index %q", sel)
	}

	return nil
}

func selects(sel string, i int) bool {
	return sel == "*" || sel == strconv.Itoa(i)
}

func (p tracePath) resolve(nodes *NodeContainer) []resolvedTarget {
	var targets []resolvedTarget

	for i, node := range nodes.Nodes() {
		if !selects(p.nodeSel, i) {
			continue
		}

		var items []traceTarget
		if p.list == "ApplicationList" {
			for _, app := range node.Applications() {
				items = append(items, app)
			}
		} else {
			for _, dev := range node.Devices() {
				items = append(items, dev)
			}
		}

		for j, item := range items {
			if !selects(p.itemSel, j) {
				continue
			}

			if p.typeName != "" && item.TypeName() != p.typeName {
				continue
			}

			targets = append(targets, resolvedTarget{
				path:   p.concrete(i, j, item),
				target: item,
			})
		}
	}

	return targets
}

func (p tracePath) concrete(node, item int, t traceTarget) string {
	return fmt.Sprintf("/NodeList/%d/%s/%d/$%s/%s",
		node, p.list, item, t.TypeName(), p.source)
}

// Connect attaches fn to every trace source the path matches. fn receives
// the concrete path of the object that fired the trace.
func Connect(nodes *NodeContainer, path string, fn ContextFunc) error {
	return connect(nodes, path, func(r resolvedTarget) sim.Hook {
		context := r.path
		return sim.HookFunc(func(ctx sim.HookCtx) {
			fn(context, ctx)
		})
	})
}

// ConnectWithoutContext attaches hook to every trace source the path
// matches.
func ConnectWithoutContext(nodes *NodeContainer, path string, hook sim.Hook) error {
	return connect(nodes, path, func(resolvedTarget) sim.Hook {
		return hook
	})
}

func connect(
	nodes *NodeContainer,
	path string,
	makeHook func(r resolvedTarget) sim.Hook,
) error {
	p, err := parseTracePath(path)
	if err != nil {
		return err
	}

	targets := p.resolve(nodes)
	if len(targets) == 0 {
		return fmt.Errorf("%w: %q matches no object", ErrInvalidTracePath, path)
	}

	for _, r := range targets {
		err := r.target.ConnectTrace(p.source, makeHook(r))
		if err != nil {
			return fmt.Errorf("connecting %s: %w", r.path, err)
		}
	}

	return nil
}
