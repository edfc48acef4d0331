package blockvalidator

import (
	"github.com/orosnet/orosd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BVAL")
