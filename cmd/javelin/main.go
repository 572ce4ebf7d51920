package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sorane/javelin/pkg/classfile"
	"github.com/sorane/javelin/pkg/vm"
)

const usage = `usage: javelin [flags] <command> <argument>

commands:
  inspect <file.class>   parse a class file and print its summary
  resolve <class name>   load and link a class and its supertypes

flags:
  -config <path>   config file (default javelin.toml)
  -cbor            inspect: emit the summary as canonical CBOR on stdout
  -v               verbose logging
`

func main() {
	configPath := flag.String("config", "javelin.toml", "config file path")
	emitCBOR := flag.Bool("cbor", false, "emit canonical CBOR instead of JSON")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "javelin:", err)
		os.Exit(1)
	}
	defer log.Sync()

	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := loadConfig(*configPath, explicit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "javelin:", err)
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "inspect":
		err = runInspect(flag.Arg(1), *emitCBOR)
	case "resolve":
		err = runResolve(cfg, log, flag.Arg(1))
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "javelin:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func runInspect(path string, emitCBOR bool) error {
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return err
	}
	summary, err := cf.Summarize()
	if err != nil {
		return err
	}
	if emitCBOR {
		data, err := classfile.MarshalSummary(summary)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func runResolve(cfg *Config, log *zap.Logger, name string) error {
	var sources vm.MultiSource
	for _, dir := range cfg.ClassPath {
		sources = append(sources, &vm.DirSource{Root: dir})
	}
	jmodPath, err := findJmodPath(cfg)
	if err == nil {
		sources = append(sources, &vm.JmodSource{Path: jmodPath})
	} else {
		log.Warn("platform classes unavailable", zap.Error(err))
	}
	if len(sources) == 0 {
		return fmt.Errorf("no class sources configured")
	}

	loader := vm.NewClassLoader(sources, log)
	handle, err := vm.ParseClassName(name)
	if err != nil {
		return err
	}
	class, err := loader.Resolve(handle)
	if err != nil {
		return err
	}

	fmt.Printf("class %s\n", class.Name())
	if class.Super != nil {
		fmt.Printf("  super      %s\n", class.Super.Name())
	}
	for _, iface := range class.Interfaces {
		fmt.Printf("  implements %s\n", iface.Name())
	}
	for key := range class.Methods {
		fmt.Printf("  method     %s%s\n", key.Name, key.Descriptor)
	}
	return nil
}
