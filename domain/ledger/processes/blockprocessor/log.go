package blockprocessor

import (
	"github.com/orosnet/orosd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BPRC")
