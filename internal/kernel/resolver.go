package kernel

import "github.com/cypher-asi/zero-os-sub001/internal/capspace"

// Exists, Generation, and BumpGeneration implement capspace.Resolver by
// dispatching on ObjectType to whichever table or registry owns that
// class of object.
func (s *State) Exists(objType capspace.ObjectType, id uint64) bool {
	switch objType {
	case capspace.Process:
		return s.Procs.Exists(id)
	case capspace.Endpoint:
		return s.Endpoints.Exists(id)
	case capspace.Memory:
		return s.memReg.Exists(id)
	case capspace.Irq:
		return s.irqReg.Exists(id)
	case capspace.IoPort:
		return s.ioPortReg.Exists(id)
	case capspace.Console:
		return s.consoleReg.Exists(id)
	default:
		return false
	}
}

func (s *State) Generation(objType capspace.ObjectType, id uint64) uint32 {
	switch objType {
	case capspace.Process:
		return s.Procs.Generation(id)
	case capspace.Endpoint:
		return s.Endpoints.Generation(id)
	case capspace.Memory:
		return s.memReg.Generation(id)
	case capspace.Irq:
		return s.irqReg.Generation(id)
	case capspace.IoPort:
		return s.ioPortReg.Generation(id)
	case capspace.Console:
		return s.consoleReg.Generation(id)
	default:
		return 0
	}
}

func (s *State) BumpGeneration(objType capspace.ObjectType, id uint64) uint32 {
	switch objType {
	case capspace.Process:
		return s.Procs.BumpGeneration(id)
	case capspace.Endpoint:
		return s.Endpoints.BumpGeneration(id)
	case capspace.Memory:
		return s.memReg.Bump(id)
	case capspace.Irq:
		return s.irqReg.Bump(id)
	case capspace.IoPort:
		return s.ioPortReg.Bump(id)
	case capspace.Console:
		return s.consoleReg.Bump(id)
	default:
		return 0
	}
}
