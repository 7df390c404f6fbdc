package irsim

const (
	spikeTableSize = 10
	npRatio        = 0.7 // nmos/pmos conductance ratio

	nlSpikeMin  = 0
	nlSpikeMax  = 1
	linearSpike = 2
)

// spikeTable gives spike peaks, indexed by table kind, beta then alpha.
var spikeTable = [3][spikeTableSize + 1][spikeTableSize + 1]float64{
	// non-linear nmos driven low, pmos driven high
	{
		{0.005, 0.051, 0.106, 0.163, 0.225, 0.293, 0.367, 0.452, 0.552, 0.683, 0.899}, // .01
		{0.005, 0.051, 0.105, 0.162, 0.223, 0.288, 0.360, 0.441, 0.537, 0.661, 0.852}, // 0.1
		{0.005, 0.051, 0.104, 0.159, 0.217, 0.278, 0.345, 0.419, 0.505, 0.614, 0.768}, // 0.2
		{0.005, 0.051, 0.102, 0.154, 0.208, 0.265, 0.325, 0.390, 0.464, 0.555, 0.676}, // 0.3
		{0.005, 0.050, 0.099, 0.148, 0.197, 0.248, 0.300, 0.355, 0.417, 0.490, 0.583}, // 0.4
		{0.005, 0.049, 0.096, 0.140, 0.184, 0.226, 0.270, 0.315, 0.363, 0.419, 0.487}, // 0.5
		{0.005, 0.048, 0.090, 0.129, 0.166, 0.200, 0.234, 0.269, 0.304, 0.344, 0.392}, // 0.6
		{0.005, 0.046, 0.083, 0.114, 0.142, 0.168, 0.192, 0.216, 0.240, 0.266, 0.295}, // 0.7
		{0.005, 0.042, 0.071, 0.093, 0.112, 0.128, 0.142, 0.156, 0.169, 0.182, 0.198}, // 0.8
		{0.005, 0.033, 0.050, 0.061, 0.069, 0.076, 0.081, 0.086, 0.090, 0.093, 0.099}, // 0.9
		{0.003, 0.008, 0.009, 0.009, 0.009, 0.010, 0.010, 0.010, 0.010, 0.010, 0.010}, // .99
	},
	// non-linear nmos driven high, pmos driven low
	{
		{0.100, 0.313, 0.441, 0.540, 0.623, 0.696, 0.762, 0.824, 0.882, 0.937, 0.984}, // .01
		{0.097, 0.292, 0.404, 0.489, 0.560, 0.624, 0.682, 0.736, 0.789, 0.830, 0.893}, // 0.1
		{0.094, 0.272, 0.370, 0.443, 0.503, 0.557, 0.606, 0.652, 0.698, 0.745, 0.793}, // 0.2
		{0.091, 0.252, 0.337, 0.398, 0.449, 0.494, 0.534, 0.573, 0.612, 0.652, 0.694}, // 0.3
		{0.087, 0.232, 0.304, 0.355, 0.396, 0.432, 0.465, 0.496, 0.527, 0.560, 0.594}, // 0.4
		{0.083, 0.209, 0.269, 0.310, 0.342, 0.370, 0.396, 0.420, 0.444, 0.468, 0.496}, // 0.5
		{0.078, 0.184, 0.231, 0.262, 0.286, 0.307, 0.325, 0.343, 0.360, 0.377, 0.397}, // 0.6
		{0.071, 0.155, 0.189, 0.210, 0.227, 0.241, 0.253, 0.264, 0.275, 0.286, 0.298}, // 0.7
		{0.061, 0.120, 0.140, 0.153, 0.162, 0.169, 0.176, 0.182, 0.187, 0.193, 0.199}, // 0.8
		{0.045, 0.073, 0.081, 0.085, 0.088, 0.091, 0.093, 0.095, 0.096, 0.098, 0.100}, // 0.9
		{0.009, 0.010, 0.010, 0.010, 0.010, 0.010, 0.010, 0.010, 0.010, 0.010, 0.010}, // .99
	},
	// linear RC
	{
		{0.010, 0.099, 0.198, 0.296, 0.394, 0.491, 0.589, 0.688, 0.787, 0.887, 0.979}, // .01
		{0.010, 0.095, 0.185, 0.272, 0.357, 0.441, 0.525, 0.610, 0.699, 0.792, 0.887}, // 0.1
		{0.010, 0.091, 0.173, 0.250, 0.324, 0.396, 0.468, 0.541, 0.617, 0.699, 0.787}, // 0.2
		{0.010, 0.087, 0.162, 0.230, 0.294, 0.355, 0.416, 0.477, 0.541, 0.610, 0.688}, // 0.3
		{0.010, 0.083, 0.150, 0.209, 0.264, 0.315, 0.365, 0.416, 0.468, 0.525, 0.589}, // 0.4
		{0.010, 0.078, 0.137, 0.188, 0.233, 0.275, 0.315, 0.355, 0.396, 0.441, 0.491}, // 0.5
		{0.009, 0.072, 0.123, 0.164, 0.200, 0.233, 0.264, 0.294, 0.324, 0.357, 0.394}, // 0.6
		{0.009, 0.065, 0.106, 0.138, 0.164, 0.188, 0.209, 0.230, 0.250, 0.272, 0.296}, // 0.7
		{0.009, 0.055, 0.085, 0.106, 0.123, 0.137, 0.150, 0.162, 0.173, 0.185, 0.198}, // 0.8
		{0.008, 0.039, 0.055, 0.065, 0.072, 0.078, 0.083, 0.087, 0.091, 0.095, 0.099}, // 0.9
		{0.004, 0.008, 0.009, 0.009, 0.009, 0.010, 0.010, 0.010, 0.010, 0.010, 0.010}, // .99
	},
}

// delayTable gives spike charging delays, indexed by beta then alpha.
var delayTable = [spikeTableSize + 1][spikeTableSize + 1]float64{
	{9.12006e+00, 6.31441e-01, 2.57972e-01, 1.44287e-01, 9.08200e-02, 6.01663e-02, 4.03907e-02, 2.65355e-02, 1.61530e-02, 7.81327e-03, 9.32511e-04}, // .01
	{6.75920e+01, 4.23025e+00, 1.67348e+00, 9.22844e-01, 5.78068e-01, 3.83611e-01, 2.59448e-01, 1.72782e-01, 1.07510e-01, 5.40007e-02, 7.10297e-03}, // 0.1
	{1.19421e+02, 7.15202e+00, 2.80304e+00, 1.54448e+00, 9.70528e-01, 6.47718e-01, 4.41433e-01, 2.96820e-01, 1.86968e-01, 9.55642e-02, 1.30529e-02}, // 0.2
	{1.63622e+02, 9.51381e+00, 3.72112e+00, 2.05847e+00, 1.30175e+00, 8.75381e-01, 6.01600e-01, 4.08196e-01, 2.59717e-01, 1.34386e-01, 1.87625e-02}, // 0.3
	{2.01466e+02, 1.14592e+01, 4.49666e+00, 2.50681e+00, 1.59963e+00, 1.08575e+00, 7.53099e-01, 5.15657e-01, 3.31075e-01, 1.72965e-01, 2.44792e-02}, // 0.4
	{2.33031e+02, 1.30456e+01, 5.16491e+00, 2.91360e+00, 1.88135e+00, 1.29123e+00, 9.04789e-01, 6.25272e-01, 4.04824e-01, 2.13117e-01, 3.03870e-02}, // 0.5
	{2.57614e+02, 1.42986e+01, 5.75449e+00, 3.30168e+00, 2.16446e+00, 1.50508e+00, 1.06642e+00, 7.43858e-01, 4.85264e-01, 2.56919e-01, 3.66949e-02}, // 0.6
	{2.73495e+02, 1.52373e+01, 6.30568e+00, 3.70558e+00, 2.47626e+00, 1.74816e+00, 1.25340e+00, 8.82200e-01, 5.79179e-01, 3.07615e-01, 4.37233e-02}, // 0.7
	{2.76873e+02, 1.59248e+01, 6.91424e+00, 4.20379e+00, 2.87725e+00, 2.06596e+00, 1.49889e+00, 1.06318e+00, 7.00760e-01, 3.71884e-01, 5.21156e-02}, // 0.8
	{2.57710e+02, 1.67902e+01, 7.96238e+00, 5.07908e+00, 3.57464e+00, 2.60911e+00, 1.90987e+00, 1.35912e+00, 8.94002e-01, 4.70028e-01, 6.37819e-02}, // 0.9
	{1.96679e+02, 2.57710e+01, 1.38437e+01, 9.11648e+00, 6.44036e+00, 4.66063e+00, 3.35777e+00, 2.33745e+00, 1.49276e+00, 7.51022e-01, 9.21218e-02}, // .99
}
