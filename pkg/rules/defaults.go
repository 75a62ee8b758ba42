package rules

const (
	// DefaultTimestampFile holds the commit time of the exported revision, relative to the source root.
	DefaultTimestampFile = "build/util/LASTCHANGE.committime"
)

var defaultNonessentialDirs = []string{
	"build/linux/debian_bullseye_amd64-sysroot",
	"build/linux/debian_bullseye_i386-sysroot",
	"third_party/blink/tools",
	"third_party/blink/web_tests",
	"third_party/hunspell_dictionaries",
	"third_party/hunspell/tests",
	"third_party/instrumented_libs",
	"third_party/jdk/current",
	"third_party/jdk/extras",
	"third_party/liblouis/src/tests/braille-specs",
	"third_party/llvm-build",
	"third_party/xdg-utils/tests",
	"v8/test",
}

var defaultEssentialFiles = []string{
	"chrome/test/data/webui/i18n_process_css_test.html",
	"chrome/test/data/webui/mojo/foobar.mojom",
	"chrome/test/data/webui/web_ui_test.mojom",
	// orchestrator_all needs it for gn gen
	"v8/test/torque/test-torque.tq",
}

var defaultEssentialGitDirs = []string{
	// rustc build expects the .git subdirs of the Rust checkout
	"third_party/rust-src/",
}

var defaultTestDirs = []string{
	"chrome/test/data",
	"content/test/data",
	"courgette/testdata",
	"extensions/test/data",
	"media/test/data",
	"native_client/src/trusted/service_runtime/testdata",
	"third_party/breakpad/breakpad/src/processor/testdata",
	"third_party/catapult/tracing/test_data",
}

// Default returns the built-in rule configuration for a Chromium checkout.
func Default() Config {
	return Config{
		NonessentialDirs: append([]string(nil), defaultNonessentialDirs...),
		TestDirs:         append([]string(nil), defaultTestDirs...),
		EssentialFiles:   append([]string(nil), defaultEssentialFiles...),
		EssentialGitDirs: append([]string(nil), defaultEssentialGitDirs...),
	}
}
