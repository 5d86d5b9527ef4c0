package main

import (
	"github.com/vk/quill/internal/registry"
	"github.com/vk/quill/modules/env_vars"
	"github.com/vk/quill/modules/json_data"
	"github.com/vk/quill/modules/print"
)

// coreModules is the definitive list of all processor modules that are
// compiled into the quill binary.
var coreModules = []registry.Module{
	&env_vars.Module{},
	&json_data.Module{},
	&print.Module{},
}
