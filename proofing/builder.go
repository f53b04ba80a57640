package proofing

import (
	"github.com/kokukuma/mdoc-issuance/evidence"
)

// step builds one node given the node that follows it, which is nil at the
// end of the workflow.
type step func(followUp Node) (Node, error)

// Builder records the steps of a linear workflow. Branches are described
// with Choice and IcaoTunnel, each branch being a Builder of its own that
// continues with whatever follows the branching step.
type Builder struct {
	steps []step
	err   error
}

// Create runs init on a new Builder and assembles the graph. A workflow
// without any step, including a nil init, is a GraphConfigurationError.
func Create(init func(b *Builder)) (*Graph, error) {
	b := &Builder{}
	if init != nil {
		init(b)
	}
	root, err := b.build(nil)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, configurationError("no nodes were added")
	}
	return newGraph(root)
}

// build applies the steps last to first, so every node is created after the
// node it leads to and no step can refer back to an earlier one.
func (b *Builder) build(followUp Node) (Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	node := followUp
	for i := len(b.steps) - 1; i >= 0; i-- {
		var err error
		if node, err = b.steps[i](node); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (b *Builder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = configurationError(format, args...)
	}
}

func (b *Builder) addSimple(id string, request evidence.Request) {
	if id == "" {
		b.fail("%s step without an id", request.Kind())
		return
	}
	b.steps = append(b.steps, func(followUp Node) (Node, error) {
		return &SimpleNode{id: id, request: request, followUp: followUp}, nil
	})
}

// Message shows a message. rejectButtonText may be empty.
func (b *Builder) Message(id, message, acceptButtonText, rejectButtonText string) {
	b.addSimple(id, evidence.MessageRequest{
		Message:          message,
		AcceptButtonText: acceptButtonText,
		RejectButtonText: rejectButtonText,
	})
}

// Question asks for a free-text answer.
func (b *Builder) Question(id, message, defaultValue, acceptButtonText string) {
	b.addSimple(id, evidence.QuestionStringRequest{
		Message:          message,
		DefaultValue:     defaultValue,
		AcceptButtonText: acceptButtonText,
	})
}

// IcaoPassiveAuthentication asks for data groups of a passport chip.
func (b *Builder) IcaoPassiveAuthentication(id string, dataGroups []int) {
	b.addSimple(id, evidence.IcaoPassiveAuthenticationRequest{
		DataGroups: append([]int(nil), dataGroups...),
	})
}

// Choices collects the branches of a multiple-choice step.
type Choices struct {
	choices  []evidence.Choice
	branches map[string]*Builder
	err      error
}

// On adds a choice. The branch built by init runs when the holder picks id
// and then continues after the choice step. A nil init continues right away.
func (c *Choices) On(id, text string, init func(b *Builder)) {
	if c.err != nil {
		return
	}
	if _, ok := c.branches[id]; ok {
		c.err = configurationError("choice %q declared twice", id)
		return
	}
	branch := &Builder{}
	if init != nil {
		init(branch)
	}
	c.choices = append(c.choices, evidence.Choice{ID: id, Text: text})
	c.branches[id] = branch
}

// Choice asks a multiple-choice question and branches on the answer. A nil
// init declares no choices, which is a GraphConfigurationError.
func (b *Builder) Choice(id, message, acceptButtonText string, init func(c *Choices)) {
	c := &Choices{branches: make(map[string]*Builder)}
	if init != nil {
		init(c)
	}
	switch {
	case c.err != nil:
		if b.err == nil {
			b.err = c.err
		}
		return
	case id == "":
		b.fail("choice step without an id")
		return
	case len(c.choices) == 0:
		b.fail("choice %q has no choices", id)
		return
	}

	request := evidence.QuestionMultipleChoiceRequest{
		Message:          message,
		PossibleValues:   c.choices,
		AcceptButtonText: acceptButtonText,
	}
	b.steps = append(b.steps, func(followUp Node) (Node, error) {
		followUps := make(map[string]Node, len(c.branches))
		for choiceID, branch := range c.branches {
			node, err := branch.build(followUp)
			if err != nil {
				return nil, err
			}
			followUps[choiceID] = node
		}
		return &MultipleChoiceNode{id: id, request: request, followUps: followUps}, nil
	})
}

// IcaoChoices collects the branches of an ICAO NFC tunnel step. Branches
// that are never configured continue right after the tunnel step. Each
// outcome can be configured once, and a nil init leaves it empty.
type IcaoChoices struct {
	active *Builder
	chip   *Builder
	none   *Builder

	configured map[evidence.AuthenticationType]bool
	err        error
}

func (c *IcaoChoices) configure(init func(b *Builder), branch *Builder, outcomes ...evidence.AuthenticationType) {
	if c.err != nil {
		return
	}
	for _, outcome := range outcomes {
		if c.configured[outcome] {
			c.err = configurationError("%s authentication branch configured twice", outcome)
			return
		}
	}
	for _, outcome := range outcomes {
		c.configured[outcome] = true
	}
	if init != nil {
		init(branch)
	}
}

// WhenAuthenticated configures one branch for both chip and active
// authentication. Both outcomes lead to the same node.
func (c *IcaoChoices) WhenAuthenticated(init func(b *Builder)) {
	if !c.configured[evidence.AuthenticationChip] && !c.configured[evidence.AuthenticationActive] {
		c.chip = c.active
	}
	c.configure(init, c.active, evidence.AuthenticationChip, evidence.AuthenticationActive)
}

func (c *IcaoChoices) WhenChipAuthenticated(init func(b *Builder)) {
	c.configure(init, c.chip, evidence.AuthenticationChip)
}

func (c *IcaoChoices) WhenActiveAuthenticated(init func(b *Builder)) {
	c.configure(init, c.active, evidence.AuthenticationActive)
}

// WhenNotAuthenticated configures the branch for a chip that supports
// neither chip nor active authentication, so cloning cannot be ruled out.
func (c *IcaoChoices) WhenNotAuthenticated(init func(b *Builder)) {
	c.configure(init, c.none, evidence.AuthenticationNone)
}

// IcaoTunnel reads dataGroups from a passport chip over an NFC tunnel and
// branches on the authentication outcome.
func (b *Builder) IcaoTunnel(id string, dataGroups []int, init func(c *IcaoChoices)) {
	if id == "" {
		b.fail("icao tunnel step without an id")
		return
	}
	c := &IcaoChoices{
		active:     &Builder{},
		chip:       &Builder{},
		none:       &Builder{},
		configured: make(map[evidence.AuthenticationType]bool),
	}
	if init != nil {
		init(c)
	}
	if c.err != nil {
		if b.err == nil {
			b.err = c.err
		}
		return
	}

	groups := append([]int(nil), dataGroups...)
	b.steps = append(b.steps, func(followUp Node) (Node, error) {
		built := make(map[*Builder]Node, 3)
		for _, branch := range []*Builder{c.active, c.chip, c.none} {
			if _, ok := built[branch]; ok {
				continue
			}
			node, err := branch.build(followUp)
			if err != nil {
				return nil, err
			}
			built[branch] = node
		}
		return &IcaoNfcTunnelNode{
			id:         id,
			dataGroups: groups,
			active:     built[c.active],
			chip:       built[c.chip],
			none:       built[c.none],
		}, nil
	})
}
