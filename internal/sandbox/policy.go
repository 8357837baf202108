package sandbox

import (
	"fmt"
	"regexp"
	"strings"
)

// Built-in deny patterns, matched against the lower-cased command line.
// These cover privilege escalation, host power and service control, raw
// disk operations, whole-tree deletion from the filesystem root, fork
// bombs, and remote scripts piped straight into a shell.
var builtinDeny = []string{
	`(^|\s)sudo(\s|$)`,
	`(^|\s)su(\s|$)`,
	`(^|\s)doas(\s|$)`,
	`(^|\s)(shutdown|reboot|halt|poweroff)(\s|$)`,
	`(^|\s)(diskutil|launchctl|systemctl|service)(\s|$)`,
	`(^|\s)(mount|umount|mkfs)(\s|$)`,
	`rm\s+-rf\s+/`,
	`dd\s+if=`,
	`:\(\)\s*\{`,
	`(curl|wget)[^|;]*\|\s*(ba|da|z)?sh(\s|$)`,
	`(^|\s)nc\s+[^|]*-[a-z]*e(\s|$)`,
}

// Policy decides whether a command line may run at all. Checks happen
// before the command is handed to the shell, so a blocked command is
// never executed.
type Policy struct {
	patterns []*regexp.Regexp
}

// NewPolicy compiles the built-in deny list plus any extra patterns from
// configuration.
func NewPolicy(extra []string) (*Policy, error) {
	p := &Policy{}
	for _, raw := range append(append([]string{}, builtinDeny...), extra...) {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to compile deny pattern %q: %w", raw, err)
		}
		p.patterns = append(p.patterns, re)
	}
	return p, nil
}

// Blocked reports whether the command matches a deny pattern, returning
// the pattern that matched.
func (p *Policy) Blocked(command string) (string, bool) {
	lowered := strings.ToLower(command)
	for _, re := range p.patterns {
		if re.MatchString(lowered) {
			return re.String(), true
		}
	}
	return "", false
}
