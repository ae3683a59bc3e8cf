package dialect

import "sort"

// Capability 表示方言可选支持的能力标识。
type Capability string

const (
	CapabilitySchemas          Capability = "schemas"
	CapabilityReturning        Capability = "returning"
	CapabilityUpsert           Capability = "upsert"
	CapabilitySavepoints       Capability = "savepoints"
	CapabilityBooleanEmulation Capability = "boolean_emulation"
	CapabilitySequences        Capability = "sequences"
	CapabilityIdentity         Capability = "identity"
	CapabilityTransactionalDDL Capability = "transactional_ddl"
)

// Capabilities 以集合形式表达方言支持的能力。
type Capabilities map[Capability]bool

// Supports 判断是否支持指定能力。
func (c Capabilities) Supports(cap Capability) bool {
	if c == nil {
		return false
	}
	return c[cap]
}

// Union 返回两个集合的并集，不修改原集合。
func (c Capabilities) Union(other Capabilities) Capabilities {
	out := make(Capabilities, len(c)+len(other))
	for k, v := range c {
		if v {
			out[k] = true
		}
	}
	for k, v := range other {
		if v {
			out[k] = true
		}
	}
	return out
}

// List 返回排序后的能力列表。
func (c Capabilities) List() []Capability {
	out := make([]Capability, 0, len(c))
	for k, v := range c {
		if v {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewCapabilities 便捷构造能力集合。
func NewCapabilities(caps ...Capability) Capabilities {
	set := make(Capabilities, len(caps))
	for _, cap := range caps {
		set[cap] = true
	}
	return set
}
