package hooking_test

//go:generate mockgen -destination "mock_hook_test.go" -package $GOPACKAGE -write_package_comment=false github.com/sarchlab/stripesched/internal/hooking Hook

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestHooking(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Hooking Suite")
}
