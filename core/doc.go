// Package core defines the domain model for logsight: the Document record,
// deterministic document identity, validation against the index contract,
// and the binary serializers used by the storage layer.
package core
