package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"miccap/audio"
	"miccap/doctor"
	"miccap/log"
	"miccap/recorder"
)

var version = "dev"

func main() {
	listFlag := flag.Bool("list", false, "List capture devices and exit")
	setupFlag := flag.Bool("setup", false, "Select microphone device interactively")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	outFlag := flag.String("out", ".", "Directory for finished recordings")
	doctorFlag := flag.Bool("doctor", false, "Run capture diagnostics and exit")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("miccap %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run())
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	if *listFlag {
		devices, err := ctx.Devices()
		if err != nil {
			fmt.Printf("Error listing devices: %v\n", err)
			os.Exit(1)
		}
		for _, d := range devices {
			tag := ""
			if audio.IsBluetooth(d.Name) {
				tag = " [bluetooth]"
			}
			fmt.Printf("%s%s\n", d.Name, tag)
		}
		os.Exit(0)
	}

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Printf("Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	caps := recorder.Probe(ctx)
	if !caps.Supported || caps.Preferred == "" {
		fmt.Println("Error: this system cannot capture audio in any supported encoding")
		os.Exit(1)
	}

	var program *tea.Program

	sess := recorder.NewSession(recorder.Config{
		Runtime: ctx,
		Device:  selectedDevice,
		Logger:  log.Logger(),
		OnStateChange: func(s recorder.State) {
			if program != nil {
				program.Send(StateMsg(s))
			}
		},
		OnLevel: func(rms float64) {
			if program != nil {
				program.Send(LevelMsg(rms))
			}
		},
		OnError: func(err error) {
			log.Errorf("recording error: %v", err)
			if program != nil {
				program.Send(ErrorMsg{Err: err})
			}
		},
		OnResult: func(res *recorder.Result) {
			path := filepath.Join(*outFlag, res.File.Name)
			if err := os.WriteFile(path, res.File.Data, 0644); err != nil {
				log.Errorf("saving %s: %v", path, err)
				if program != nil {
					program.Send(ErrorMsg{Err: fmt.Errorf("saving recording: %w", err)})
				}
				return
			}
			log.Artifact(res.File.Name, res.MimeType, res.Duration, float64(len(res.Data))/1024)
			if program != nil {
				program.Send(ArtifactMsg{Name: res.File.Name, Size: len(res.Data), Duration: res.Duration})
			}
		},
	})
	defer sess.Close()

	deviceName := "system default"
	if selectedDevice != nil {
		deviceName = selectedDevice.Name
		if audio.IsBluetooth(deviceName) {
			deviceName += " (bluetooth: lower audio quality)"
		}
	}
	log.SessionStart(caps.Preferred, deviceName)

	capsLine := fmt.Sprintf("encoding: %s (permission: %s)", caps.Preferred, caps.Permission)
	program = tea.NewProgram(newTUIModel(sess, "mic: "+deviceName, capsLine))
	if _, err := program.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
