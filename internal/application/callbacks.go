package application

import (
	"sort"
	"strconv"
	"strings"

	"proxy-admin-bot/internal/domain/model"
)

// Callback data sent by inline buttons. Exact values first, then prefixes
// whose remainder carries the argument.
const (
	CbMenu         = "menu"
	CbHelp         = "help"
	CbCancel       = "cancel"
	CbSystemInfo   = "sys"
	CbRestart      = "restart"
	CbCreate       = "create"
	CbCreateManual = "create:manual"
	CbBulk         = "bulk"
	CbWizardRandom = "w:rand"
	CbWizardCommit = "w:done"
	CbWizardData   = "w:data"
	CbWizardExpiry = "w:exp"
	CbNoop         = "noop"

	PfxRestartOK      = "restart:"  // restart:<core|nodes>
	PfxUsers          = "users:"    // users:<page>
	PfxUser           = "user:"     // user:<name>
	PfxAsk            = "ask:"      // ask:<action>:<name>
	PfxDo             = "do:"       // do:<action>:<name>
	PfxLinks          = "links:"    // links:<name>
	PfxQR             = "qr:"       // qr:<name>
	PfxNote           = "note:"     // note:<name>
	PfxEdit           = "edit:"     // edit:<name>
	PfxCharge         = "charge:"   // charge:<name>
	PfxChargeTemplate = "chg:"      // chg:<template>:<name>
	PfxChargeApply    = "chgdo:"    // chgdo:<add|reset>:<template>:<name>
	PfxTemplate       = "tpl:"      // tpl:<template>
	PfxStatus         = "w:st:"     // w:st:<status>
	PfxInbound        = "w:ib:"     // w:ib:<inbound ref>
	PfxProtocol       = "w:pr:"     // w:pr:<protocol>
	PfxBulkDelete     = "bdel:"     // bdel:<status>
	PfxBulkDeleteOK   = "bdelok:"   // bdelok:<status>
	PfxBulkValue      = "bval:"     // bval:<flow>
	PfxBulkApply      = "bapply:"   // bapply:<flow>:<value>
	PfxBulkInbound    = "bib:"      // bib:<add|rm>
	PfxBulkInboundAsk = "bibask:"   // bibask:<add|rm>:<inbound ref>
	PfxBulkInboundDo  = "bibdo:"    // bibdo:<add|rm>:<inbound ref>
)

// Telegram rejects inline buttons whose callback data exceeds 64 bytes.
const maxCallbackData = 64

// inboundIndexMark prefixes an inbound ref that is a position in the sorted
// tag list instead of the tag itself.
const inboundIndexMark = "#"

// Account actions reachable through PfxAsk and PfxDo.
const (
	ActionDelete   = "delete"
	ActionSuspend  = "suspend"
	ActionActivate = "activate"
	ActionReset    = "reset"
	ActionRevoke   = "revoke"
)

const (
	modeAdd    = "add"
	modeRemove = "rm"
	modeReset  = "reset"
)

func cbUsers(page int) string { return PfxUsers + strconv.Itoa(page) }
func cbUser(name string) string { return PfxUser + name }
func cbAsk(action, name string) string { return PfxAsk + action + ":" + name }
func cbDo(action, name string) string { return PfxDo + action + ":" + name }
func cbTemplate(id int64) string { return PfxTemplate + strconv.FormatInt(id, 10) }
func cbProtocol(p model.ProxyType) string { return PfxProtocol + string(p) }

func sortedTags(byTag map[string]model.InboundInfo) []string {
	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// inboundRef is the tag itself when prefix+tag fits in callback data, and
// otherwise the tag's index in tags.
func inboundRef(prefix, tag string, tags []string) string {
	if len(prefix)+len(tag) <= maxCallbackData {
		return tag
	}
	return inboundIndexMark + strconv.Itoa(sort.SearchStrings(tags, tag))
}

// resolveInbound maps a ref produced by inboundRef back to its tag. Refs
// that match no tag are returned as is and rejected downstream.
func resolveInbound(ref string, byTag map[string]model.InboundInfo) string {
	if _, ok := byTag[ref]; ok {
		return ref
	}
	idx, ok := strings.CutPrefix(ref, inboundIndexMark)
	if !ok {
		return ref
	}
	i, err := strconv.Atoi(idx)
	tags := sortedTags(byTag)
	if err != nil || i < 0 || i >= len(tags) {
		return ref
	}
	return tags[i]
}

func cbChargeTemplate(id int64, name string) string {
	return PfxChargeTemplate + strconv.FormatInt(id, 10) + ":" + name
}

func cbChargeApply(mode string, id int64, name string) string {
	return PfxChargeApply + mode + ":" + strconv.FormatInt(id, 10) + ":" + name
}

func cbBulkApply(flow model.WizardFlow, v int64) string {
	return PfxBulkApply + string(flow) + ":" + strconv.FormatInt(v, 10)
}

// splitArg cuts "a:rest" into a and rest. Usernames never contain a colon,
// inbound tags may, so rest is never split further.
func splitArg(s string) (string, string, bool) {
	return strings.Cut(s, ":")
}

// ParseChargeTemplate decodes the payload of PfxChargeTemplate.
func ParseChargeTemplate(payload string) (int64, string, bool) {
	id, name, ok := splitArg(payload)
	if !ok {
		return 0, "", false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || name == "" {
		return 0, "", false
	}
	return n, name, true
}

// ParseChargeApply decodes the payload of PfxChargeApply.
func ParseChargeApply(payload string) (add bool, id int64, name string, ok bool) {
	mode, rest, found := splitArg(payload)
	if !found || (mode != modeAdd && mode != modeReset) {
		return false, 0, "", false
	}
	id, name, ok = ParseChargeTemplate(rest)
	return mode == modeAdd, id, name, ok
}
