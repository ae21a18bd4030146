// Package injector serializes the dependency-injection hierarchy: injector
// identities, provider records, and the path a dependency lookup takes.
//
// Resolution paths are ordered leaf to root: the first element is the
// injector the lookup started from, the last is the injector that supplied
// the token (or the outermost injector visited when nothing did).
package injector

import (
	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/protocol"
)

// Injector kinds.
const (
	KindElement     = "element"
	KindEnvironment = "environment"
	KindNull        = "null"
)

// Locator returns the shallow forest node for an element, or nil.
type Locator func(host.Element) *protocol.DevToolsNode

// Serialize returns the wire form of inj. locate may be nil.
func Serialize(inj host.Injector, locate Locator) protocol.SerializedInjector {
	out := protocol.SerializedInjector{
		ID:   inj.ID(),
		Name: inj.Name(),
		Type: kindOf(inj),
	}
	if locate != nil && out.Type == KindElement {
		if owner := inj.Owner(); owner != nil {
			out.Node = locate(owner)
		}
	}
	return out
}

func kindOf(inj host.Injector) string {
	switch k := inj.Kind(); k {
	case KindElement, KindEnvironment, KindNull:
		return k
	}
	return KindEnvironment
}

// Resolve walks from the starting injector towards the root looking for
// token, honoring flags. It returns the visited chain, the resolving
// injector, and the matching record; the last two are nil when the token
// is not provided anywhere on the chain.
func Resolve(from host.Injector, token string, flags protocol.InjectFlags) ([]host.Injector, host.Injector, *host.ProviderRecord) {
	var chain []host.Injector
	cur := from
	if flags.SkipSelf && cur != nil {
		chain = append(chain, cur)
		cur = cur.Parent()
	}
	for cur != nil {
		if flags.Host && len(chain) > 0 && kindOf(cur) != KindElement {
			break
		}
		chain = append(chain, cur)
		if rec := lookup(cur, token); rec != nil {
			return chain, cur, rec
		}
		if flags.Self {
			break
		}
		cur = cur.Parent()
	}
	return chain, nil, nil
}

func lookup(inj host.Injector, token string) *host.ProviderRecord {
	records := inj.Providers()
	for i := range records {
		if records[i].Token == token {
			return &records[i]
		}
	}
	return nil
}

// ResolutionPath serializes the chain Resolve visits.
func ResolutionPath(from host.Injector, token string, flags protocol.InjectFlags, locate Locator) []protocol.SerializedInjector {
	chain, _, _ := Resolve(from, token, flags)
	out := make([]protocol.SerializedInjector, len(chain))
	for i, inj := range chain {
		out[i] = Serialize(inj, locate)
	}
	return out
}

// Kind derives how a provider record produces its value.
func Kind(rec host.ProviderRecord) protocol.ProviderKind {
	switch {
	case rec.HasValue:
		return protocol.ProviderValue
	case rec.UseExisting != "":
		return protocol.ProviderExisting
	case rec.UseFactory != nil:
		return protocol.ProviderFactory
	case rec.UseClass != "":
		return protocol.ProviderClass
	}
	return protocol.ProviderType
}

// SerializeProviders converts provider records to their wire form.
func SerializeProviders(records []host.ProviderRecord) []protocol.SerializedProviderRecord {
	out := make([]protocol.SerializedProviderRecord, len(records))
	for i, rec := range records {
		out[i] = protocol.SerializedProviderRecord{
			Token:          rec.Token,
			Type:           Kind(rec),
			Multi:          rec.Multi,
			IsViewProvider: rec.IsViewProvider,
		}
	}
	return out
}

// Collect indexes every injector reachable from the element injectors of
// els, including their ancestors, by id.
func Collect(els []host.Element) map[string]host.Injector {
	out := make(map[string]host.Injector)
	for _, el := range els {
		if el == nil {
			continue
		}
		for inj := el.Injector(); inj != nil; inj = inj.Parent() {
			if _, seen := out[inj.ID()]; seen {
				break
			}
			out[inj.ID()] = inj
		}
	}
	return out
}
