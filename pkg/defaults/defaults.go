package defaults

import "time"

const (
	//directories and files
	DefaultHomeDir       = ".lvh"          //directory inside HOME directory for configs and run artifacts
	DefaultConfigFile    = "lvh.yml"       //file for search config in current directory
	DefaultLogDist       = "logs"          //directory for per-run logs inside DefaultHomeDir
	DefaultReportDist    = "reports"       //directory for junit reports inside DefaultHomeDir
	DefaultResultsDB     = "results.db"    //sqlite database with performance records
	DefaultConfigEnv     = "LVH_CONFIG"    //environment variable with path to config file
	DefaultGuestHomeDir  = "/root"         //working directory of test scripts inside the guest
	DefaultStateFile     = "state.txt"     //guest state marker polled by the host side
	DefaultConstantsFile = "constants.sh"  //test parameters rendered for the guest script
	DefaultExecutionLog  = "TestExecution.log"
	DefaultSummaryLog    = "summary.log"

	//guest state sentinels written to DefaultStateFile
	StateRunning   = "TestRunning"
	StateCompleted = "TestCompleted"
	StateFailed    = "TestFailed"
	StateAborted   = "TestAborted"

	//ports and credentials
	DefaultSSHPort = 22
	DefaultSSHUser = "root"
	DefaultSSHKey  = "certs/id_rsa" //file with ssh private key

	//DefaultRepeatCount is repeat count for requests
	DefaultRepeatCount = 20
	//DefaultRepeatTimeout is time wait for next attempt
	DefaultRepeatTimeout = 5 * time.Second
	//DefaultPollInterval is the sleep between re-reads of the guest state file
	DefaultPollInterval = 5 * time.Second
	//DefaultTestTimeout bounds a single background workload
	DefaultTestTimeout = 10 * time.Minute

	//drivers
	DriverHyperV = "hyperv"
	DriverAzure  = "azure"
	DriverFake   = "fake"

	//DefaultDriverModePattern parses test.driver values of the form
	//[hyperv|azure|fake]://<target>
	DefaultDriverModePattern = `^(?P<Type>[^:]+)(://(?P<Target>.*))?$`
)
