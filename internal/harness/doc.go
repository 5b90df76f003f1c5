// Package harness runs conformance scenarios against the TMM solver.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: quarter_wave_ar
//	description: "Quarter-wave MgF2 on glass is reflection-minimised"
//	stack: ../stacks/ar.yaml      # or inline `layers:`
//	cases:
//	  - name: design wavelength
//	    wavelength: 550
//	    expect:
//	      reflectance: 0.012627
//	      tolerance: 1e-6
//	  - name: grazing
//	    wavelength: 550
//	    angle_deg: 90
//	    expect:
//	      error: INVALID_INPUT
//
// Stack paths are resolved relative to the scenario file. Inline layers are
// not schema-checked, so scenarios can exercise the solver's own input
// validation. A case wavelength of zero falls back to the stack file's
// default wavelength when there is one.
//
// # Expectations
//
//   - reflectance / transmittance / absorptance: compared within tolerance
//     (absolute or relative, default 1e-9)
//   - error: the solve must fail with this error code
//
// # Execution
//
// Cases are independent and run concurrently on runtime.NumCPU() workers.
// Results are slotted back by case index, so output order always matches
// the scenario file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/ar.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, c := range result.Cases { ... }
//	}
package harness
