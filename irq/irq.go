// Package irq defines the basic interfaces for working
// with a chip interrupt line in the simulator. A generator of interrupts
// (such as an I/O expander's open-drain nINT) implements Sender to allow
// the host or other components to check state without cross coupling
// component logic.
// NOTE: Open-drain interrupt lines are wired-AND when shared, so a receiver
//       with several senders installed on one line should treat any single
//       Raised() as the whole line pulled low.
package irq

type Sender interface {
	// Raised indicates whether the interrupt is currently asserted.
	Raised() bool
}

type Receiver interface {
	// Install takes the given sender and stores it for later checks in appropriate logic.
	Install(s Sender)
}
