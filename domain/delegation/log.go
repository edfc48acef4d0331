package delegation

import (
	"github.com/orosnet/orosd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("DLGN")
