/*
Package irsim implements an event-driven switch-level simulator for MOS
transistor networks.

A Session holds a flat network of nodes and transistors, usually loaded from a
.sim netlist with LoadSim or built with the PutTransistor, PutResistor and
PutCapacitor calls, then frozen with FinishNetwork. Node values are one of Low,
High or X. Simulation proceeds by forcing input nodes with SetInput and calling
Step or Relax: pending node events are fired in time order, every fired event is
appended to the node's history, and the stages affected by the change are
re-evaluated by the session's timing model.

Two timing models are available. The Linear model computes node values with a
strength lattice and schedules transitions after a fixed or user specified
delay. The RC model computes node values from Thevenin equivalent resistance
ranges and derives delays from Elmore time constants, with charge sharing and
spike analysis.

Time is counted in integer deltas; there are ResolutionScale deltas per
nanosecond.
*/
package irsim
